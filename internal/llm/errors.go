package llm

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Rrens/recruit-advisor/internal/domain"
)

// StatusError converts a non-200 provider reply into an error.
// Rate limiting and server-side failures are retryable.
func StatusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("%s returned status %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return domain.NewTransientError(provider+" generate", err)
	}
	return err
}

// TransportError marks a failed round trip to a provider as retryable
func TransportError(provider string, err error) error {
	return domain.NewTransientError(provider+" generate", fmt.Errorf("request failed: %w", err))
}
