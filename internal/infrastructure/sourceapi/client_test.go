package sourceapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:      srv.URL,
		AgencyNumber: 1234,
		Password:     "secret",
		LanguageID:   1,
		Domain:       "example.com",
		ClientIP:     "10.0.0.1",
		PhotoBaseURL: "https://photos.example.com",
		UserAgent:    "legacy-agent",
	}, zap.NewNop())
	return srv, c
}

func TestClient_ListProperties(t *testing.T) {
	t.Run("decodes records after the metadata element", func(t *testing.T) {
		var gotParam, gotAgent string
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotParam = r.PostFormValue("param")
			gotAgent = r.UserAgent()
			assert.Equal(t, "example.com", r.PostFormValue("elDominio"))
			assert.Equal(t, "1", r.PostFormValue("json"))

			w.Write([]byte(`{"paginacion":[
				{"total":"2"},
				{"cod_ofer":"101","ref":"A-101","precioinmo":"125000.50","habitaciones":"2","ascensor":"1"},
				{"cod_ofer":102,"ref":"A-102","precioinmo":99000,"ascensor":0}
			]}`))
		})

		props, err := c.ListProperties(context.Background(), integration.SourcePage{Offset: 0, Limit: 25})
		require.NoError(t, err)
		require.Len(t, props, 2)

		assert.Equal(t, "1234;secret;1;lostipos;paginacion;1;25;;", gotParam)
		assert.Equal(t, "legacy-agent", gotAgent)

		assert.Equal(t, int64(101), props[0].CodOfer)
		assert.Equal(t, "A-101", props[0].Ref)
		assert.Equal(t, 125000.50, props[0].Precio)
		assert.Equal(t, 2, props[0].Habitaciones)
		assert.True(t, props[0].Ascensor)

		assert.Equal(t, int64(102), props[1].CodOfer)
		assert.False(t, props[1].Ascensor)
	})

	t.Run("single object result is normalized to one record", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"paginacion":{"cod_ofer":"55","ref":"B-55"}}`))
		})

		props, err := c.ListProperties(context.Background(), integration.SourcePage{})
		require.NoError(t, err)
		// The lone element is consumed as metadata, leaving no records.
		assert.Empty(t, props)
	})

	t.Run("auth marker maps to ErrSourceNotAuthorized", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("IP NO VALIDADA 10.0.0.1"))
		})

		_, err := c.ListProperties(context.Background(), integration.SourcePage{})
		assert.ErrorIs(t, err, integration.ErrSourceNotAuthorized)
	})

	t.Run("domain marker maps to ErrSourceNotAuthorized", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("DOMINIO NO VALIDADO example.com"))
		})

		_, err := c.ListProperties(context.Background(), integration.SourcePage{})
		assert.ErrorIs(t, err, integration.ErrSourceNotAuthorized)
	})

	t.Run("server error maps to ErrSourceUnavailable", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := c.ListProperties(context.Background(), integration.SourcePage{})
		assert.ErrorIs(t, err, integration.ErrSourceUnavailable)
	})

	t.Run("non-JSON body maps to ErrSourceUnavailable", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>maintenance</html>"))
		})

		_, err := c.ListProperties(context.Background(), integration.SourcePage{})
		assert.ErrorIs(t, err, integration.ErrSourceUnavailable)
	})

	t.Run("unreachable host maps to ErrSourceUnavailable", func(t *testing.T) {
		srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
		srv.Close()

		_, err := c.ListProperties(context.Background(), integration.SourcePage{})
		assert.ErrorIs(t, err, integration.ErrSourceUnavailable)
	})
}

func TestClient_GetPropertyDetail(t *testing.T) {
	t.Run("merges detail and listing records", func(t *testing.T) {
		var gotParam string
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotParam = r.PostFormValue("param")
			w.Write([]byte(`{
				"ficha":{"cod_ofer":"77","descrip":"Bright flat near the beach"},
				"paginacion":[{"total":"1"},{"cod_ofer":"77","ref":"C-77","precioinmo":"200000","numfotos":"3","fotoletra":"F"}]
			}`))
		})

		p, err := c.GetPropertyDetail(context.Background(), 77)
		require.NoError(t, err)

		assert.Contains(t, gotParam, "ficha;1;1;cod_ofer=77;")
		assert.Contains(t, gotParam, "paginacion;1;1;cod_ofer=77;")

		assert.Equal(t, int64(77), p.CodOfer)
		assert.Equal(t, "Bright flat near the beach", p.Descripcion)
		assert.Equal(t, "C-77", p.Ref)
		assert.Equal(t, 200000.0, p.Precio)
		assert.Equal(t, 3, p.NumFotos)
	})

	t.Run("falls back to listing record when detail is empty", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"ficha":null,
				"paginacion":[{"total":"1"},{"cod_ofer":"78","ref":"C-78"}]
			}`))
		})

		p, err := c.GetPropertyDetail(context.Background(), 78)
		require.NoError(t, err)
		assert.Equal(t, "C-78", p.Ref)
	})

	t.Run("returns ErrListingNotFound when both records are empty", func(t *testing.T) {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ficha":null,"paginacion":[{"total":"0"}]}`))
		})

		_, err := c.GetPropertyDetail(context.Background(), 79)
		assert.ErrorIs(t, err, integration.ErrListingNotFound)
	})
}

func TestClient_ListFeatured(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostFormValue("param"), "destacados;1;4;;")
		w.Write([]byte(`{"destacados":[{"total":"1"},{"cod_ofer":"9","ref":"D-9"}]}`))
	})

	props, err := c.ListFeatured(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "D-9", props[0].Ref)
}

func TestClient_PhotoURLs(t *testing.T) {
	c := testClient()

	t.Run("builds 1-based gallery URLs", func(t *testing.T) {
		p := &integration.SourceProperty{CodOfer: 77, NumFotos: 3, FotoLetra: "F", NumAgencia: 99}

		urls := c.PhotoURLs(p)
		require.Len(t, urls, 3)
		assert.Equal(t, "https://photos.example.com/99/77/F-1.jpg", urls[0])
		assert.Equal(t, "https://photos.example.com/99/77/F-3.jpg", urls[2])
		assert.Equal(t, urls[0], c.MainPhotoURL(p))
	})

	t.Run("falls back to configured agency number", func(t *testing.T) {
		p := &integration.SourceProperty{CodOfer: 77, NumFotos: 1, FotoLetra: "F"}

		urls := c.PhotoURLs(p)
		require.Len(t, urls, 1)
		assert.Equal(t, "https://photos.example.com/1234/77/F-1.jpg", urls[0])
	})

	t.Run("no photos yields no URLs", func(t *testing.T) {
		p := &integration.SourceProperty{CodOfer: 77}
		assert.Nil(t, c.PhotoURLs(p))
		assert.Equal(t, "", c.MainPhotoURL(p))
	})
}
