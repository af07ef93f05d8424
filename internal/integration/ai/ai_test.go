package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	prompt string
	resp   string
	err    error
}

func (m *fakeModel) Name() string { return "fake" }

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.resp, m.err
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText("cv.TXT", []byte("  Lucía Pérez\nGo developer  "))
	require.NoError(t, err)
	assert.Equal(t, "Lucía Pérez\nGo developer", text)

	_, err = ExtractText("cv.odt", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ExtractText("cv.txt", []byte("   \n"))
	assert.ErrorIs(t, err, ErrNoText)

	_, err = ExtractText("cv.txt", []byte{0xff, 0xfe, 0xfd})
	assert.Error(t, err)

	_, err = ExtractText("cv.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}

func TestStripXML(t *testing.T) {
	in := `<w:document><w:body><w:p><w:r><w:t>Lucía &amp; Co</w:t></w:r></w:p><w:p><w:r><w:t>Go</w:t></w:r></w:p></w:body></w:document>`
	assert.Equal(t, "Lucía & Co\nGo\n", stripXML(in))
}

func TestParseProfile(t *testing.T) {
	resp := "```json\n" + `{"name":" Lucía ","email":"Lucia@Example.com ","score":12.34,"suggested_stage":"primera entrevista","skills":["go","sql"]}` + "\n```"
	p, err := parseProfile(resp)
	require.NoError(t, err)
	assert.Equal(t, "Lucía", p.Name)
	assert.Equal(t, "lucia@example.com", p.Email)
	assert.Equal(t, 10.0, p.Score)
	assert.Equal(t, "1ª Entrevista", p.SuggestedStage)
	assert.Equal(t, []string{"go", "sql"}, p.Skills)

	p, err = parseProfile(`{"score":-3,"suggested_stage":"contratado"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Score)
	assert.Equal(t, "Pre-entrevista", p.SuggestedStage)

	p, err = parseProfile(`{"score":7.26}`)
	require.NoError(t, err)
	assert.Equal(t, 7.3, p.Score)

	_, err = parseProfile("lo siento, no puedo")
	assert.ErrorIs(t, err, errNoJSON)

	_, err = parseProfile(`{"score":"alto"}`)
	assert.Error(t, err)
}

func TestBuildPromptTruncates(t *testing.T) {
	long := make([]rune, maxPromptChars+500)
	for i := range long {
		long[i] = 'a'
	}
	p := buildPrompt(string(long))
	assert.Contains(t, p, "Fit Cultural")
	assert.Less(t, len(p), maxPromptChars+2000)
}

func TestExtractorExtractProfile(t *testing.T) {
	m := &fakeModel{resp: `{"name":"Lucía","score":8}`}
	e := NewExtractor(m, zap.NewNop())

	p, err := e.ExtractProfile(context.Background(), "cv.txt", []byte("Lucía, backend Go, 6 años"))
	require.NoError(t, err)
	assert.Equal(t, "Lucía", p.Name)
	assert.Contains(t, m.prompt, "backend Go")

	m.err = errors.New("deadline exceeded")
	_, err = e.ExtractProfile(context.Background(), "cv.txt", []byte("x"))
	assert.ErrorIs(t, err, m.err)

	m.err, m.resp = nil, "sin json"
	_, err = e.ExtractProfile(context.Background(), "cv.txt", []byte("x"))
	assert.Error(t, err)

	_, err = e.ExtractProfile(context.Background(), "cv.png", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSetPDFLicenseEmpty(t *testing.T) {
	assert.NoError(t, SetPDFLicense(""))
}
