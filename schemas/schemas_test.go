package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/site-cloner/internal/schemas"
	rootschemas "github.com/jonathan/site-cloner/schemas"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, name := range rootschemas.Names() {
		t.Run(name, func(t *testing.T) {
			data, err := rootschemas.Read(name)
			require.NoError(t, err, "should be able to read embedded schema")

			var v map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &v), "schema should be valid JSON")

			_, hasSchema := v["$schema"]
			_, hasType := v["type"]
			assert.True(t, hasSchema && hasType, "schema should declare $schema and type")
		})
	}
}

func TestSchemas_AcceptMinimalDocuments(t *testing.T) {
	docs := map[string]string{
		rootschemas.AssetMap: `{"baseUrl":"https://ex.com","assets":[{"url":"https://ex.com/a.png","localPath":"assets/a.png","identifier":"a_a_png"}]}`,
		rootschemas.CaptureReport: `{"title":"Ex","baseUrl":"https://ex.com/","when":"2024-05-01T10:00:00Z",
			"anchors":["/","/pricing"],"sameOriginAssetsCount":1,"sampleAssets":["https://ex.com/a.png"]}`,
		rootschemas.RunSummary: `{"runId":"","url":"https://ex.com","slug":"ex-com","when":"2024-05-01T10:00:00Z",
			"cloneMs":1234,"cloneSeconds":1.2,"compared":true,"alsoLocal":false,"blockAnalytics":true}`,
		rootschemas.DiffReport: `{"urlOriginal":"https://ex.com","urlLocal":"http://localhost:5173/ex-com",
			"counts":{"links":{"original":10,"local":3,"delta":-7}},
			"landmarks":{"header":{"original":true,"local":true,"match":true}},
			"components":{},"notes":["Link count differs by -7"],
			"mismatches":[{"kind":"link_count","delta":-7}],"bboxSamples":[]}`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, schemas.ValidateBytes(name, []byte(doc)))
		})
	}
}

func TestAssetMapSchema_RejectsBadIdentifier(t *testing.T) {
	doc := `{"baseUrl":"https://ex.com","assets":[{"url":"https://ex.com/a.png","localPath":"assets/a.png","identifier":"img-a"}]}`

	err := schemas.ValidateBytes(rootschemas.AssetMap, []byte(doc))
	require.Error(t, err)
	_, ok := err.(*schemas.ValidationError)
	assert.True(t, ok, "expected ValidationError, got %T", err)
}
