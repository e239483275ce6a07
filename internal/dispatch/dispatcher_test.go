package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polyseek/polyseek/internal/adapter"
	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

func TestRun_GlobalTimeoutContainment(t *testing.T) {
	h := newHarness(t)
	h.addService(t, "fast", 2*time.Second, &fakeExchanger{delay: 50 * time.Millisecond, body: []byte(okJSON)})
	h.addService(t, "medium", 2*time.Second, &fakeExchanger{delay: 200 * time.Millisecond, body: []byte(okJSON)})
	h.addService(t, "slow", 2*time.Second, &fakeExchanger{delay: 5 * time.Second, body: []byte(okJSON)})

	d := h.dispatcher(Config{GlobalTimeout: 300 * time.Millisecond, MaxConcurrent: 8})

	start := time.Now()
	statuses, noServices, err := d.Run(context.Background(), mustQuery(t, "cats", nil), h.sink)
	elapsed := time.Since(start)

	if err != nil || noServices {
		t.Fatalf("Run: err=%v noServices=%v", err, noServices)
	}
	// Generous bound: arrival sets are non-deterministic, wall time is not.
	if elapsed > time.Second {
		t.Errorf("Run took %v, want ~300ms", elapsed)
	}

	if statuses["fast"].Status != result.StatusOK {
		t.Errorf("fast = %s, want ok", statuses["fast"].Status)
	}
	if statuses["medium"].Status != result.StatusOK {
		t.Errorf("medium = %s, want ok", statuses["medium"].Status)
	}
	if statuses["slow"].Status != result.StatusTimedOut {
		t.Errorf("slow = %s, want timed-out", statuses["slow"].Status)
	}

	if len(h.sink.got("fast")) == 0 || len(h.sink.got("medium")) == 0 {
		t.Error("fast/medium results missing from sink")
	}
	if len(h.sink.got("slow")) != 0 {
		t.Error("slow delivered results despite timeout")
	}
}

func TestRun_SuspendedServiceNotDispatched(t *testing.T) {
	h := newHarness(t)
	ex := &fakeExchanger{body: []byte(okJSON)}
	h.addService(t, "banned", time.Second, ex)
	h.health.ineligible["banned"] = true

	d := h.dispatcher(Config{})
	statuses, noServices, err := d.Run(context.Background(), mustQuery(t, "x", nil), h.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !noServices {
		t.Error("noServices = false, want true (only service suspended)")
	}
	if statuses["banned"].Status != result.StatusSuspended {
		t.Errorf("status = %s, want suspended", statuses["banned"].Status)
	}
	if ex.calls.Load() != 0 {
		t.Errorf("exchanger called %d times, want 0", ex.calls.Load())
	}
}

func TestRun_ClassifiedFailureRecorded(t *testing.T) {
	h := newHarness(t)
	h.addService(t, "blocked", time.Second, &fakeExchanger{status: 403})

	d := h.dispatcher(Config{})
	statuses, _, err := d.Run(context.Background(), mustQuery(t, "x", nil), h.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if statuses["blocked"].Status != result.StatusErrored {
		t.Errorf("status = %s, want errored", statuses["blocked"].Status)
	}

	recorded := h.health.recorded("blocked")
	if len(recorded) != 1 || recorded[0].Class != domain.FailureAccessDenied {
		t.Errorf("recorded = %+v, want one access-denied outcome", recorded)
	}
}

func TestRun_CaptchaDetectedInBody(t *testing.T) {
	h := newHarness(t)
	h.addService(t, "challenged", time.Second, &fakeExchanger{
		status: 403,
		body:   []byte(`<html><div class="g-recaptcha"></div></html>`),
	})

	d := h.dispatcher(Config{})
	if _, _, err := d.Run(context.Background(), mustQuery(t, "x", nil), h.sink); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recorded := h.health.recorded("challenged")
	if len(recorded) != 1 || recorded[0].Class != domain.FailureCaptcha {
		t.Errorf("recorded = %+v, want captcha", recorded)
	}
}

func TestRun_SuccessBodyMentioningChallengeMarkers(t *testing.T) {
	h := newHarness(t)
	// A legitimate 200 result page about captchas: the body and a result URL
	// both contain challenge markers. Must stay a success, never a suspension.
	h.addService(t, "goodsvc", time.Second, &fakeExchanger{
		status: 200,
		body:   []byte(`{"items": [{"url": "https://x.com/captcha-guide", "title": "how g-recaptcha works"}]}`),
	})

	d := h.dispatcher(Config{})
	statuses, _, err := d.Run(context.Background(), mustQuery(t, "what is g-recaptcha", nil), h.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if statuses["goodsvc"].Status != result.StatusOK {
		t.Errorf("status = %s, want ok", statuses["goodsvc"].Status)
	}
	if len(h.sink.got("goodsvc")) != 1 {
		t.Errorf("sink got %d items, want 1", len(h.sink.got("goodsvc")))
	}
	recorded := h.health.recorded("goodsvc")
	if len(recorded) != 1 || !recorded[0].OK() {
		t.Errorf("recorded = %+v, want success", recorded)
	}
}

func TestRun_EmptyResultIsSuccess(t *testing.T) {
	h := newHarness(t)
	h.addService(t, "empty", time.Second, &fakeExchanger{body: []byte(`{"items": []}`)})

	d := h.dispatcher(Config{})
	statuses, _, err := d.Run(context.Background(), mustQuery(t, "x", nil), h.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if statuses["empty"].Status != result.StatusOK || statuses["empty"].ResultCount != 0 {
		t.Errorf("timing = %+v, want ok with 0 results", statuses["empty"])
	}

	recorded := h.health.recorded("empty")
	if len(recorded) != 1 || !recorded[0].OK() {
		t.Errorf("recorded = %+v, want success", recorded)
	}
}

func TestRun_MalformedResponseErrored(t *testing.T) {
	h := newHarness(t)
	h.addService(t, "garbage", time.Second, &fakeExchanger{body: []byte(`{{{{`)})

	d := h.dispatcher(Config{})
	statuses, _, err := d.Run(context.Background(), mustQuery(t, "x", nil), h.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if statuses["garbage"].Status != result.StatusErrored {
		t.Errorf("status = %s, want errored", statuses["garbage"].Status)
	}
	recorded := h.health.recorded("garbage")
	if len(recorded) != 1 || recorded[0].Class != domain.FailureGeneric {
		t.Errorf("recorded = %+v, want generic", recorded)
	}
}

func TestRun_UnsupportedShapeSkipped(t *testing.T) {
	h := newHarness(t)

	// A currency service cannot serve a plain text term.
	fx, err := adapter.NewCurrency("https://fx.example/{amount}/{from}/{to}")
	if err != nil {
		t.Fatalf("NewCurrency: %v", err)
	}
	d, err := service.New("fx", "", service.Currency, []string{"general"}, time.Second, 1,
		service.Capabilities{}, service.NetworkPolicy{})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	if err := h.reg.Register(d, fx); err != nil {
		t.Fatalf("Register: %v", err)
	}
	h.exchanger["fx"] = &fakeExchanger{}

	disp := h.dispatcher(Config{})
	statuses, _, err := disp.Run(context.Background(), mustQuery(t, "just words", nil), h.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if statuses["fx"].Status != result.StatusSkipped {
		t.Errorf("status = %s, want skipped", statuses["fx"].Status)
	}
	if len(h.health.recorded("fx")) != 0 {
		t.Errorf("tracker touched for skipped service: %+v", h.health.recorded("fx"))
	}
	if h.exchanger["fx"].calls.Load() != 0 {
		t.Error("request sent despite unsupported shape")
	}
}

// failingBuildAdapter breaks the adapter contract: BuildRequest fails with an
// error that is not ErrUnsupportedQuery.
type failingBuildAdapter struct {
	err error
}

func (a *failingBuildAdapter) BuildRequest(query.Query, service.Descriptor) (*adapter.RequestSpec, error) {
	return nil, a.err
}

func (a *failingBuildAdapter) ParseResponse([]byte) ([]result.Partial, error) {
	return nil, nil
}

func TestRun_BuildErrorRecordedAsGenericFailure(t *testing.T) {
	h := newHarness(t)

	d, err := service.New("broken", "", service.Direct, []string{"general"}, time.Second, 1,
		service.Capabilities{}, service.NetworkPolicy{})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	if err := h.reg.Register(d, &failingBuildAdapter{err: errors.New("template expansion failed")}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	h.exchanger["broken"] = &fakeExchanger{}

	disp := h.dispatcher(Config{})
	statuses, _, err := disp.Run(context.Background(), mustQuery(t, "x", nil), h.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if statuses["broken"].Status != result.StatusErrored {
		t.Errorf("status = %s, want errored", statuses["broken"].Status)
	}
	recorded := h.health.recorded("broken")
	if len(recorded) != 1 || recorded[0].Class != domain.FailureGeneric {
		t.Errorf("recorded = %+v, want one generic failure", recorded)
	}
	if h.exchanger["broken"].calls.Load() != 0 {
		t.Error("request sent despite failed build")
	}
}

func TestRun_UnknownExplicitService(t *testing.T) {
	h := newHarness(t)
	h.addService(t, "known", time.Second, &fakeExchanger{body: []byte(okJSON)})

	d := h.dispatcher(Config{})
	_, _, err := d.Run(context.Background(), mustQuery(t, "x", []string{"ghost"}), h.sink)
	if !errors.Is(err, domain.ErrUnknownService) {
		t.Errorf("err = %v, want ErrUnknownService", err)
	}
}

func TestRun_OfflineService(t *testing.T) {
	h := newHarness(t)

	src := adapter.NewStaticSource([]result.Partial{
		result.Standard("https://docs.example/a", "local entry", "matched by term"),
	})
	off, err := adapter.NewOffline(src)
	if err != nil {
		t.Fatalf("NewOffline: %v", err)
	}
	d, err := service.New("local", "", service.Offline, []string{"general"}, time.Second, 1,
		service.Capabilities{}, service.NetworkPolicy{})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	if err := h.reg.Register(d, off); err != nil {
		t.Fatalf("Register: %v", err)
	}

	disp := h.dispatcher(Config{})
	statuses, _, err := disp.Run(context.Background(), mustQuery(t, "local entry", nil), h.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if statuses["local"].Status != result.StatusOK || statuses["local"].ResultCount != 1 {
		t.Errorf("timing = %+v, want ok with 1 result", statuses["local"])
	}
	if len(h.sink.got("local")) != 1 {
		t.Errorf("sink got %d items, want 1", len(h.sink.got("local")))
	}
}

func TestRun_PerServiceTimeoutShortenedByOverride(t *testing.T) {
	h := newHarness(t)
	h.addService(t, "slowish", 2*time.Second, &fakeExchanger{delay: 300 * time.Millisecond, body: []byte(okJSON)})

	q, err := mustQueryWithTimeout(t, "x", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	d := h.dispatcher(Config{GlobalTimeout: 5 * time.Second})
	statuses, _, runErr := d.Run(context.Background(), q, h.sink)
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if statuses["slowish"].Status != result.StatusTimedOut {
		t.Errorf("status = %s, want timed-out under 50ms override", statuses["slowish"].Status)
	}
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   domain.FailureClass
	}{
		{200, "fine", domain.FailureNone},
		{204, "", domain.FailureNone},
		{403, "", domain.FailureAccessDenied},
		{401, "", domain.FailureAccessDenied},
		{429, "", domain.FailureRateLimited},
		{500, "", domain.FailureGeneric},
		{503, "", domain.FailureGeneric},
		// Challenge markers count only behind a blocking status.
		{200, `<div class="h-captcha">`, domain.FailureNone},
		{200, "see /captcha for details", domain.FailureNone},
		{403, `<div class="g-recaptcha">`, domain.FailureCaptcha},
		{429, `<div class="h-captcha">`, domain.FailureCaptcha},
		{503, "cf_chl_opt", domain.FailureCaptcha},
	}
	for _, tc := range cases {
		if got := classifyStatus(tc.status, []byte(tc.body)); got != tc.want {
			t.Errorf("classifyStatus(%d, %q) = %v, want %v", tc.status, tc.body, got, tc.want)
		}
	}
}
