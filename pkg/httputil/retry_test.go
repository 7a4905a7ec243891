package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	sberrors "github.com/matzehuels/storyboard/pkg/errors"
)

var errTransient = errors.New("transient")

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d, want nil 1", err, calls)
	}

	calls = 0
	fatal := errors.New("fatal")
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return fatal
	})
	if err != fatal || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d, want fatal 1", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return Retryable(errTransient)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retry then success: err=%v calls=%d, want nil 3", err, calls)
	}

	calls = 0
	err = Retry(ctx, 2, time.Millisecond, func() error {
		calls++
		return Retryable(errTransient)
	})
	if !errors.Is(err, errTransient) || calls != 2 {
		t.Errorf("exhausted: err=%v calls=%d, want transient 2", err, calls)
	}
}

func TestRetryZeroAttempts(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), 0, time.Millisecond, func() error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("Retry with 0 attempts called fn %d times, want 1", calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return Retryable(errTransient)
	})
	if err != context.Canceled {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
}

func TestRetryAfter(t *testing.T) {
	start := time.Now()
	calls := 0
	err := Retry(context.Background(), 2, time.Hour, func() error {
		calls++
		if calls == 1 {
			return &RetryableError{Err: errTransient, After: time.Millisecond}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() = %v", err)
	}
	if time.Since(start) > time.Minute {
		t.Error("After did not override the backoff delay")
	}
}

func TestPolicyMaxDelay(t *testing.T) {
	p := Policy{Attempts: 4, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	var stamps []time.Time
	err := p.Do(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return Retryable(errTransient)
	})
	if !errors.Is(err, errTransient) || len(stamps) != 4 {
		t.Fatalf("Do() = %v after %d calls, want transient after 4", err, len(stamps))
	}
	if gap := stamps[3].Sub(stamps[2]); gap > time.Second {
		t.Errorf("third wait %v ignored MaxDelay", gap)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errTransient)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errTransient.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errTransient) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		status    int
		header    string
		wantCode  sberrors.Code
		retryable bool
		after     time.Duration
	}{
		{status: 200},
		{status: 204},
		{status: 429, header: "7", wantCode: sberrors.ErrCodeRateLimited, retryable: true, after: 7 * time.Second},
		{status: 429, header: "soon", wantCode: sberrors.ErrCodeRateLimited, retryable: true},
		{status: 503, wantCode: sberrors.ErrCodeUnavailable, retryable: true},
		{status: 502, wantCode: sberrors.ErrCodeNetwork, retryable: true},
		{status: 401, wantCode: sberrors.ErrCodeInvalidConfig},
		{status: 400, wantCode: sberrors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
		if tt.header != "" {
			resp.Header.Set("Retry-After", tt.header)
		}
		err := CheckStatus(resp, "svc")
		if tt.wantCode == "" {
			if err != nil {
				t.Errorf("CheckStatus(%d) = %v, want nil", tt.status, err)
			}
			continue
		}
		if got := sberrors.GetCode(err); got != tt.wantCode {
			t.Errorf("CheckStatus(%d) code = %q, want %q", tt.status, got, tt.wantCode)
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("CheckStatus(%d) retryable = %v, want %v", tt.status, IsRetryable(err), tt.retryable)
		}
		var re *RetryableError
		if errors.As(err, &re) && re.After != tt.after {
			t.Errorf("CheckStatus(%d) After = %v, want %v", tt.status, re.After, tt.after)
		}
	}
}
