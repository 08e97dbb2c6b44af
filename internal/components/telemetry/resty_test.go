package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func (m *memoryOutput) Write(id, contents string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.messages[id] = contents
}

func TestFormatRequestBodyWithoutBody(t *testing.T) {
	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(nil))

	req, err := http.NewRequest(http.MethodGet, "https://shop.example", nil)
	require.NoError(t, err)
	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(req))

	req.GetBody = func() (io.ReadCloser, error) { return nil, nil }
	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(req))

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("quantity=1")), nil
	}
	require.Equal(t, "quantity=1", formatRequestBody(req))
}

func TestInstrumentRestyDumpsMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("storefront"))
	}))
	defer server.Close()

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentResty(client, &RecorderAPI{}, out)

	_, err := client.R().SetContext(context.Background()).Get(server.URL)
	require.NoError(t, err)
	_, err = client.R().SetFormData(map[string]string{"product_id": "42"}).Post(server.URL + "/?wc-ajax=add_to_cart")
	require.NoError(t, err)

	require.Contains(t, out.messages["1"], "<NO BODY AVAILABLE>")
	require.Contains(t, out.messages["1"], "storefront")
	require.Contains(t, out.messages["2"], "POST "+server.URL+"/?wc-ajax=add_to_cart")
}
