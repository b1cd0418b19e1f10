// Package callback runs the short-lived local HTTP listener that receives
// the identity provider's redirect during an interactive login.
package callback

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	kautherr "github.com/kauth-dev/kauth/pkg/errors"
	"github.com/kauth-dev/kauth/pkg/logger"
)

// Result carries the authorization code extracted from a valid redirect.
type Result struct {
	Code  string
	State string
}

// Listener accepts exactly one valid redirect on
// http://localhost:<port>/callback and then goes quiet. Off-path requests
// get a 404, redirects with a mismatched state get an error page but do not
// complete the wait.
type Listener struct {
	server        *http.Server
	port          int
	expectedState string

	resultCh  chan Result
	errCh     chan error
	completed atomic.Bool
	stopOnce  sync.Once
}

// Start binds the callback port and begins serving. A port that is already
// bound is surfaced as a port_in_use error, so the caller can tell the user
// to free it rather than reporting a generic network failure.
func Start(port int, expectedState string) (*Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, kautherr.NewPortInUseError(
			fmt.Sprintf("port %d is already in use, free it or set a different callback port", port), err)
	}

	l := &Listener{
		port:          port,
		expectedState: expectedState,
		resultCh:      make(chan Result, 1),
		errCh:         make(chan error, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", l.handleCallback)

	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Debugf("callback listener started on port %d", port)
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.fail(kautherr.NewInternalError("callback listener failed", err))
		}
	}()

	return l, nil
}

// Port returns the bound callback port.
func (l *Listener) Port() int {
	return l.port
}

// RedirectURI returns the redirect URI the provider must be configured with.
func (l *Listener) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", l.port)
}

// Await blocks until one valid redirect arrives, the provider reports an
// error, or the context expires. The context deadline is the login deadline;
// on expiry a timeout error is returned.
func (l *Listener) Await(ctx context.Context) (Result, error) {
	select {
	case res := <-l.resultCh:
		return res, nil
	case err := <-l.errCh:
		return Result{}, err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, kautherr.NewTimeoutError(
				"login not completed in time, run login again and finish the browser flow", ctx.Err())
		}
		return Result{}, kautherr.NewInternalError("login cancelled", ctx.Err())
	}
}

// Stop tears the listener down. It is idempotent and must be called on every
// exit path so the port is immediately bindable again.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.server.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("Failed to shut down callback listener: %v", err)
		}
	})
}

// complete delivers the result if no completion happened yet.
func (l *Listener) complete(res Result) bool {
	if !l.completed.CompareAndSwap(false, true) {
		return false
	}
	l.resultCh <- res
	return true
}

// fail delivers a terminal error if no completion happened yet.
func (l *Listener) fail(err error) bool {
	if !l.completed.CompareAndSwap(false, true) {
		return false
	}
	l.errCh <- err
	return true
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Provider-reported error, e.g. the user denied consent.
	if errParam := query.Get("error"); errParam != "" {
		errDesc := query.Get("error_description")
		err := kautherr.NewProviderRejectedError(
			fmt.Sprintf("provider returned %s: %s", errParam, errDesc), nil)
		writeErrorPage(w, fmt.Sprintf("%s: %s", errParam, errDesc))
		l.fail(err)
		return
	}

	// A redirect carrying the wrong state is not ours. Reject it and keep
	// waiting for the genuine callback.
	if query.Get("state") != l.expectedState {
		logger.Warn("callback received with mismatched state parameter, ignoring")
		writeErrorPage(w, "invalid state parameter")
		return
	}

	code := query.Get("code")
	if code == "" {
		writeErrorPage(w, "missing authorization code")
		return
	}

	if !l.complete(Result{Code: code, State: query.Get("state")}) {
		// Already satisfied; a second legitimate-looking callback is ignored.
		logger.Debug("ignoring duplicate callback")
		writeErrorPage(w, "login already completed")
		return
	}

	writeSuccessPage(w)
}

// setSecurityHeaders sets common security headers for all responses
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'; script-src 'none'; object-src 'none';")
}

// writeSuccessPage writes a success page to the response
func writeSuccessPage(w http.ResponseWriter) {
	setSecurityHeaders(w)
	htmlContent := `
<!DOCTYPE html>
<html>
<head>
    <title>Authentication Successful</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; text-align: center; }
        .container { max-width: 600px; margin: 0 auto; }
        .message { padding: 20px; border-radius: 5px; margin: 20px 0; }
        .success { background-color: #e7f6e7; border: 1px solid #b3e6b3; color: #006600; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authentication Successful!</h1>
        <div class="message success">
            <p>You are now logged in. You can close this window and return to the terminal.</p>
        </div>
    </div>
</body>
</html>`
	if _, err := w.Write([]byte(htmlContent)); err != nil {
		logger.Warnf("Failed to write HTML content: %v", err)
	}
}

// writeErrorPage writes an error page to the response
func writeErrorPage(w http.ResponseWriter, msg string) {
	setSecurityHeaders(w)
	w.WriteHeader(http.StatusBadRequest)

	// HTML escape the message to prevent XSS
	escaped := html.EscapeString(msg)
	htmlContent := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <title>Authentication Failed</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; text-align: center; }
        .container { max-width: 600px; margin: 0 auto; }
        .message { padding: 20px; border-radius: 5px; margin: 20px 0; }
        .error { background-color: #ffe7e7; border: 1px solid #ffb3b3; color: #cc0000; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authentication Failed</h1>
        <div class="message error">
            <p>%s</p>
            <p>Return to the terminal and try again.</p>
        </div>
    </div>
</body>
</html>`, escaped)
	if _, err := w.Write([]byte(htmlContent)); err != nil {
		logger.Warnf("Failed to write HTML content: %v", err)
	}
}
