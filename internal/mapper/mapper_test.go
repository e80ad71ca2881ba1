package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"ai-docview/internal/dto"
	"ai-docview/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIdToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("provider-key"))
	require.NoError(t, err)
	return tok
}

func TestDocumentToEntity(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantProgress int
		wantTree     bool
		wantFileURL  string
	}{
		{
			name:         "processing without progress defaults to zero",
			body:         `{"id":"d1","status":"processing"}`,
			wantProgress: 0,
		},
		{
			name:         "progress is clamped",
			body:         `{"id":"d1","status":"processing","progress":140}`,
			wantProgress: 100,
		},
		{
			name:         "empty mind tree object is absent",
			body:         `{"id":"d1","status":"ready","progress":100,"mindTree":{}}`,
			wantProgress: 100,
		},
		{
			name:         "mind tree with label key",
			body:         `{"id":"d1","status":"ready","mindTree":{"label":"Root","children":[{"title":"A"}]},"fileUrl":"https://files/d1.pdf"}`,
			wantTree:     true,
			wantFileURL:  "https://files/d1.pdf",
		},
	}

	m := NewDocumentMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp dto.DocumentResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))

			doc, err := m.ToEntity(&resp)
			require.NoError(t, err)
			assert.Equal(t, tt.wantProgress, doc.Progress)
			assert.Equal(t, tt.wantTree, doc.MindTree != nil)
			assert.Equal(t, tt.wantFileURL, doc.FileURL)
		})
	}
}

func TestDocumentMalformedMindTree(t *testing.T) {
	m := NewDocumentMapper()

	for _, tree := range []string{`[]`, `"pending"`, `{"name":"root","children":["a","b"]}`} {
		t.Run("processing ignores "+tree, func(t *testing.T) {
			var resp dto.DocumentResponse
			require.NoError(t, json.Unmarshal([]byte(`{"id":"d1","status":"processing","progress":40,"mindTree":`+tree+`}`), &resp))

			doc, err := m.ToEntity(&resp)
			require.NoError(t, err)
			assert.Equal(t, entity.DocumentStatusProcessing, doc.Status)
			assert.Equal(t, 40, doc.Progress)
			assert.Nil(t, doc.MindTree)
		})

		t.Run("ready keeps the rest of "+tree, func(t *testing.T) {
			var resp dto.DocumentResponse
			require.NoError(t, json.Unmarshal([]byte(`{"id":"d1","status":"ready","progress":100,"topics":["A"],"mindTree":`+tree+`}`), &resp))

			doc, err := m.ToEntity(&resp)
			var treeErr *MindTreeError
			require.ErrorAs(t, err, &treeErr)
			assert.Equal(t, "d1", treeErr.DocumentId)
			require.NotNil(t, doc)
			assert.Equal(t, entity.DocumentStatusReady, doc.Status)
			assert.Equal(t, []string{"A"}, doc.Topics)
			assert.Nil(t, doc.MindTree)
		})
	}
}

func TestDocumentMindTreeLabels(t *testing.T) {
	var resp dto.DocumentResponse
	require.NoError(t, json.Unmarshal([]byte(`{"id":"d","status":"ready","mindTree":{"name":"Root","children":[{"label":"A"},{"title":"B","children":[{"name":"B1"}]}]}}`), &resp))

	doc, err := NewDocumentMapper().ToEntity(&resp)
	require.NoError(t, err)
	require.NotNil(t, doc.MindTree)
	assert.Equal(t, "Root", doc.MindTree.Label)
	assert.Equal(t, "A", doc.MindTree.Children[0].Label)
	assert.Equal(t, "B1", doc.MindTree.Children[1].Children[0].Label)
	assert.Equal(t, 4, doc.MindTree.Count())
}

func TestDocumentToDTOKeepsContractShape(t *testing.T) {
	doc := &entity.Document{
		Id:       "d1",
		Status:   entity.DocumentStatusReady,
		Progress: 100,
		Topics:   []string{"A", "B"},
		MindTree: &entity.MindNode{Label: "Root"},
		PredictedQuestions: []entity.PredictedQuestion{
			{Question: "Q?", Answer: "A."},
		},
	}

	out := NewDocumentMapper().ToDTO(doc)
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "ready", generic["status"])
	assert.Equal(t, float64(100), generic["progress"])
	assert.Nil(t, generic["fileUrl"])
	assert.Equal(t, map[string]interface{}{}, generic["explanations"])
	assert.Equal(t, "Root", generic["mindTree"].(map[string]interface{})["name"])
}

func TestProfileFromIdToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signedIdToken(t, jwt.MapClaims{
		"sub":     "google-123",
		"name":    "Ada",
		"email":   "ada@example.com",
		"picture": "https://img/ada.png",
		"exp":     exp.Unix(),
	})

	profile, expiry, err := NewSessionMapper().ProfileFromIdToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "google-123", profile.Subject)
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.True(t, expiry.Equal(exp))
}

func TestProfileFromIdTokenRejectsGarbage(t *testing.T) {
	m := NewSessionMapper()

	_, _, err := m.ProfileFromIdToken("not-a-jwt")
	assert.Error(t, err)

	_, _, err = m.ProfileFromIdToken(signedIdToken(t, jwt.MapClaims{"name": "no subject"}))
	assert.Error(t, err)
}

func TestProjectSession(t *testing.T) {
	m := NewSessionMapper()
	profile := entity.ProviderProfile{Subject: "google-123", Name: "Ada", Email: "ada@example.com"}

	t.Run("backend user overlays profile", func(t *testing.T) {
		s := m.ProjectSession(&entity.SessionRecord{
			IdToken:      "id",
			BackendToken: "T1",
			Profile:      profile,
			User:         entity.User{"id": "u1", "name": "Ada Lovelace"},
		})
		assert.Equal(t, "u1", s.User["id"])
		assert.Equal(t, "Ada Lovelace", s.User["name"])
		assert.Equal(t, "ada@example.com", s.User["email"])
		assert.Equal(t, "T1", s.BackendToken)
	})

	t.Run("falls back to provider subject", func(t *testing.T) {
		s := m.ProjectSession(&entity.SessionRecord{IdToken: "id", Profile: profile})
		assert.Equal(t, "google-123", s.User["id"])
		assert.Empty(t, s.BackendToken)
	})
}
