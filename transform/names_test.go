package transform

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/spetersoncode/gemkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	geminiAPI     = GeminiAPI()
	vertexAI      = VertexAI("bar", "us-west1")
	vertexExpress = VertexAIExpress()
)

func TestModel(t *testing.T) {
	tests := []struct {
		name     string
		p        Personality
		in       string
		expected string
	}{
		{"gemini bare", geminiAPI, "gemini-2.0-flash", "models/gemini-2.0-flash"},
		{"gemini models prefix", geminiAPI, "models/gemini-2.0-flash", "models/gemini-2.0-flash"},
		{"gemini tuned", geminiAPI, "tunedModels/my-model", "tunedModels/my-model"},
		{"vertex bare", vertexAI, "gemini-2.0-flash", "publishers/google/models/gemini-2.0-flash"},
		{"vertex publisher shorthand", vertexAI, "meta/llama3", "publishers/meta/models/llama3"},
		{"vertex publishers", vertexAI, "publishers/google/models/x", "publishers/google/models/x"},
		{"vertex projects", vertexAI, "projects/p/locations/l/endpoints/1", "projects/p/locations/l/endpoints/1"},
		{"vertex models", vertexAI, "models/123", "models/123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Model(tt.p, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("empty is an error", func(t *testing.T) {
		for _, p := range []Personality{geminiAPI, vertexAI} {
			_, err := Model(p, "")
			var valErr *gemkit.ValueError
			assert.ErrorAs(t, err, &valErr)
		}
	})
}

func TestResourceName(t *testing.T) {
	tests := []struct {
		name     string
		p        Personality
		in       string
		expected string
	}{
		{"vertex collection relative", vertexAI, "cachedContents/123", "projects/bar/locations/us-west1/cachedContents/123"},
		{"vertex bare id", vertexAI, "123", "projects/bar/locations/us-west1/cachedContents/123"},
		{"vertex fully qualified", vertexAI, "projects/foo/locations/us-central1/cachedContents/123", "projects/foo/locations/us-central1/cachedContents/123"},
		{"vertex locations prefix", vertexAI, "locations/us-central1/cachedContents/123", "projects/bar/locations/us-central1/cachedContents/123"},
		{"vertex wrong shape", vertexAI, "some/wrong/cachedContents/resource/name/123", "some/wrong/cachedContents/resource/name/123"},
		{"vertex express bare id", vertexExpress, "123", "cachedContents/123"},
		{"vertex express collection relative", vertexExpress, "cachedContents/123", "cachedContents/123"},
		{"vertex express locations prefix", vertexExpress, "locations/us-central1/cachedContents/123", "locations/us-central1/cachedContents/123"},
		{"gemini bare id", geminiAPI, "123", "cachedContents/123"},
		{"gemini collection relative", geminiAPI, "cachedContents/123", "cachedContents/123"},
		{"gemini wrong shape", geminiAPI, "some/wrong/cachedContents/resource/name/123", "some/wrong/cachedContents/resource/name/123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CachedContentName(tt.p, tt.in))
		})
	}

	t.Run("nested collections honor depth", func(t *testing.T) {
		assert.Equal(t, "users/vhugo/events/dinner", ResourceName(geminiAPI, "vhugo/events/dinner", "users", 4))
		assert.Equal(t, "vhugo/dinner", ResourceName(geminiAPI, "vhugo/dinner", "users", 4))
	})

	t.Run("fully qualified names are fixed points", func(t *testing.T) {
		name := "projects/p/locations/l/cachedContents/9"
		once := CachedContentName(vertexAI, name)
		assert.Equal(t, name, once)
		assert.Equal(t, once, CachedContentName(vertexAI, once))
	})
}

func TestCachesModel(t *testing.T) {
	got, err := CachesModel(vertexAI, "gemini-1.5-pro")
	require.NoError(t, err)
	assert.Equal(t, "projects/bar/locations/us-west1/publishers/google/models/gemini-1.5-pro", got)

	got, err = CachesModel(vertexAI, "models/gemini-1.5-pro")
	require.NoError(t, err)
	assert.Equal(t, "projects/bar/locations/us-west1/publishers/google/models/gemini-1.5-pro", got)

	got, err = CachesModel(geminiAPI, "gemini-1.5-pro")
	require.NoError(t, err)
	assert.Equal(t, "models/gemini-1.5-pro", got)

	for _, p := range []Personality{vertexExpress, VertexAI("", "")} {
		got, err = CachesModel(p, "models/gemini-1.5-pro")
		require.NoError(t, err)
		assert.Equal(t, "publishers/google/models/gemini-1.5-pro", got)
		assert.NotContains(t, p.Qualify("cachedContents/1"), "projects/")
	}
}

func TestPersonalityChoices(t *testing.T) {
	tests := []struct {
		name               string
		p                  Personality
		backend            gemkit.Backend
		requiresCallIDs    bool
		sendsLabels        bool
		sendsTranscription bool
		stripsTitles       bool
	}{
		{"gemini", geminiAPI, gemkit.BackendGeminiAPI, true, false, false, true},
		{"vertex", vertexAI, gemkit.BackendVertexAI, false, true, true, false},
		{"vertex express", vertexExpress, gemkit.BackendVertexAI, false, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.backend, tt.p.Backend())
			assert.Equal(t, tt.requiresCallIDs, tt.p.RequiresCallIDs())
			assert.Equal(t, tt.sendsLabels, tt.p.SendsLabels())
			assert.Equal(t, tt.sendsTranscription, tt.p.SendsTranscription())
			assert.Equal(t, tt.stripsTitles, tt.p.StripsSchemaTitles())
		})
	}

	t.Run("For picks express mode without a project", func(t *testing.T) {
		assert.Equal(t, vertexExpress, For(gemkit.BackendVertexAI, "", ""))
		assert.Equal(t, vertexAI, For(gemkit.BackendVertexAI, "bar", "us-west1"))
		assert.Equal(t, geminiAPI, For(gemkit.BackendGeminiAPI, "bar", "us-west1"))
	})
}

func TestModelsURLAndExtract(t *testing.T) {
	assert.Equal(t, "publishers/google/models", ModelsURL(vertexAI, true))
	assert.Equal(t, "models", ModelsURL(vertexAI, false))
	assert.Equal(t, "models", ModelsURL(geminiAPI, true))
	assert.Equal(t, "tunedModels", ModelsURL(geminiAPI, false))

	models, err := ExtractModels(json.RawMessage(`{"tunedModels":[{"name":"a"},{"name":"b"}]}`))
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.JSONEq(t, `{"name":"b"}`, string(models[1]))

	models, err = ExtractModels(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Empty(t, models)

	_, err = ExtractModels(json.RawMessage(`{"nextPageToken":"x"}`))
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"files/abc123", "abc123"},
		{"abc123", "abc123"},
		{"https://generativelanguage.googleapis.com/v1beta/files/abc123:download?alt=media", "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FileName(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := FileName("")
	assert.Error(t, err)
	_, err = FileName("https://example.com/other/path")
	assert.Error(t, err)
}

func TestBatchJobs(t *testing.T) {
	name, err := BatchJobName(vertexAI, "projects/p/locations/l/batchPredictionJobs/123")
	require.NoError(t, err)
	assert.Equal(t, "123", name)

	name, err = BatchJobName(vertexAI, "456")
	require.NoError(t, err)
	assert.Equal(t, "456", name)

	_, err = BatchJobName(vertexAI, "batches/abc")
	assert.Error(t, err)

	name, err = BatchJobName(geminiAPI, "batches/abc")
	require.NoError(t, err)
	assert.Equal(t, "batches/abc", name)

	src, err := BatchJobSource("gs://bucket/in.jsonl")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"format": "jsonl", "gcsUri": []string{"gs://bucket/in.jsonl"}}, src)

	dest, err := BatchJobDestination("bq://project.dataset.table")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"format": "bigquery", "bigqueryUri": "bq://project.dataset.table"}, dest)

	_, err = BatchJobSource("s3://nope")
	assert.Error(t, err)
}

func TestTuningJobStatus(t *testing.T) {
	assert.Equal(t, "JOB_STATE_RUNNING", TuningJobStatus("CREATING"))
	assert.Equal(t, "JOB_STATE_SUCCEEDED", TuningJobStatus("ACTIVE"))
	assert.Equal(t, "JOB_STATE_FAILED", TuningJobStatus("FAILED"))
	assert.Equal(t, "JOB_STATE_UNSPECIFIED", TuningJobStatus("STATE_UNSPECIFIED"))
	assert.Equal(t, "JOB_STATE_PAUSED", TuningJobStatus("JOB_STATE_PAUSED"))
}

func TestBytesRoundTrip(t *testing.T) {
	data := []byte{0xfb, 0xff, 0xfe, 0x00, 0x3e, 0x3f}

	std := Bytes(vertexAI, data)
	decoded, err := base64.StdEncoding.DecodeString(std)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
	assert.Contains(t, std, "/")

	urlSafe := Bytes(geminiAPI, data)
	decoded, err = base64.URLEncoding.DecodeString(urlSafe)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
	assert.NotContains(t, urlSafe, "/")
	assert.NotContains(t, urlSafe, "+")

	for _, s := range []string{std, urlSafe} {
		back, err := gemkit.DecodeBase64(s)
		require.NoError(t, err)
		assert.Equal(t, data, back)
	}
}
