package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/coecms/clef/pkg/errors"
)

// maxErrorBody bounds the part of a failed response kept in the error.
const maxErrorBody = 512

// DecodeResponse decodes a JSON response into target and closes the
// body. Non-200 responses become an *errors.APIError tagged with node.
func DecodeResponse(resp *http.Response, node string, target any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		endpoint := ""
		if resp.Request != nil {
			endpoint = resp.Request.URL.String()
		}
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return &errors.APIError{
			Node:       node,
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    msg,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}

// requestError classifies a failed round trip. Cancellation and
// deadlines keep their sentinel so callers can tell them from node
// failures.
func requestError(ctx context.Context, url string, err error) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return fmt.Errorf("%w: GET %s", errors.ErrTimeout, url)
	case context.Canceled:
		return fmt.Errorf("%w: GET %s", errors.ErrCanceled, url)
	}
	return errors.WrapResource("get", "catalog", url, err)
}
