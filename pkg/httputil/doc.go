// Package httputil provides retry helpers for the remote render client.
//
// [Retry] re-runs an operation with exponential backoff, but only for errors
// wrapped in [RetryableError]. Callers decide what is transient; for HTTP
// that is usually a 502 or 503 from a proxy in front of the render server:
//
//	err := httputil.Retry(ctx, 3, 200*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return err
//	    }
//	    if httputil.RetryableStatus(resp.StatusCode) {
//	        return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
//	    }
//	    return nil
//	})
package httputil
