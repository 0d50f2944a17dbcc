package fetcher

import (
	"errors"
	"net/http"
	"testing"

	"github.com/chromedp/cdproto/network"

	"github.com/nao1215/doccrawl/internal/model"
)

func TestStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code    int
		wantErr error
		kind    model.FailureKind
	}{
		{http.StatusOK, nil, model.FailureNone},
		{http.StatusNoContent, nil, model.FailureNone},
		{http.StatusUnauthorized, ErrAuthRequired, model.FailureAuthRequired},
		{http.StatusForbidden, ErrAuthRequired, model.FailureAuthRequired},
		{http.StatusNotFound, ErrHTTPStatus, model.FailureNetwork},
		{http.StatusBadGateway, ErrHTTPStatus, model.FailureNetwork},
	}

	for _, tt := range tests {
		err := statusError(tt.code)
		if tt.wantErr == nil {
			if err != nil {
				t.Errorf("status %d: expected no error, got %v", tt.code, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("status %d: expected %v, got %v", tt.code, tt.wantErr, err)
		}
		if got := statusKind(err); got != tt.kind {
			t.Errorf("status %d: expected kind %v, got %v", tt.code, tt.kind, got)
		}
	}
}

func TestDocumentStatus(t *testing.T) {
	t.Parallel()

	response := func(typ network.ResourceType, status int64) *network.EventResponseReceived {
		return &network.EventResponseReceived{
			Type:     typ,
			Response: &network.Response{Status: status},
		}
	}

	t.Run("first document response wins", func(t *testing.T) {
		t.Parallel()

		var doc documentStatus
		doc.listen(response(network.ResourceTypeStylesheet, http.StatusOK))
		doc.listen(response(network.ResourceTypeDocument, http.StatusNotFound))
		doc.listen(response(network.ResourceTypeDocument, http.StatusOK))
		if got := doc.get(); got != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", got)
		}
		if err := statusError(doc.get()); !errors.Is(err, ErrHTTPStatus) {
			t.Errorf("expected ErrHTTPStatus, got %v", err)
		}
	})

	t.Run("login wall", func(t *testing.T) {
		t.Parallel()

		var doc documentStatus
		doc.listen(response(network.ResourceTypeDocument, http.StatusForbidden))
		if kind := statusKind(statusError(doc.get())); kind != model.FailureAuthRequired {
			t.Errorf("expected auth required, got %v", kind)
		}
	})

	t.Run("no document response", func(t *testing.T) {
		t.Parallel()

		var doc documentStatus
		doc.listen(&network.EventRequestWillBeSent{})
		doc.listen(&network.EventResponseReceived{Type: network.ResourceTypeDocument})
		if got := doc.get(); got != 0 {
			t.Errorf("expected no status, got %d", got)
		}
	})
}
