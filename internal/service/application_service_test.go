package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ats-pipeline/internal/domain"
)

// countingCache 记录回源与失效
type countingCache struct {
	data  map[string][]byte
	loads int
	dels  []string
}

func (c *countingCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, ok := c.data[key]; ok {
		return b, nil
	}
	c.loads++
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.data[key] = b
	return b, nil
}

func (c *countingCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
		c.dels = append(c.dels, k)
	}
	return nil
}

type captureWriter struct {
	app   *domain.Application
	views []domain.CandidateView
}

func (w *captureWriter) WritePipeline(out io.Writer, app *domain.Application, views []domain.CandidateView) error {
	w.app, w.views = app, views
	_, err := out.Write([]byte("xlsx"))
	return err
}

func newAppService(f *fixture) (*ApplicationService, *countingCache, *captureWriter) {
	c := &countingCache{data: map[string][]byte{}}
	w := &captureWriter{}
	return NewApplicationService(f.store, f.resolver, c, w, zap.NewNop()), c, w
}

func TestApplicationCRUD(t *testing.T) {
	f := newFixture(t, legacyCaps)
	svc, c, _ := newAppService(f)

	_, err := svc.Create(context.Background(), f.actor, ApplicationInput{Title: "  "})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	a, err := svc.Create(context.Background(), f.actor, ApplicationInput{Title: "Backend", Department: "Eng"})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationActive, a.Status)
	assert.Equal(t, f.actor.ID, a.CreatedBy)

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backend", got.Title)
	_, err = svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.loads)

	upd, err := svc.SetStatus(context.Background(), a.ID, domain.ApplicationPaused)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPaused, upd.Status)
	assert.Contains(t, c.dels, "ats:app:"+a.ID)

	got, err = svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPaused, got.Status)
	assert.Equal(t, 2, c.loads)

	_, err = svc.SetStatus(context.Background(), a.ID, "Archived")
	require.ErrorAs(t, err, &ve)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotContains(t, c.data, "ats:app:missing")
}

func TestApplicationDeleteGuard(t *testing.T) {
	for _, caps := range []domain.Capabilities{legacyCaps, postulationCaps} {
		f := newFixture(t, caps)
		svc, _, _ := newAppService(f)
		app := f.app(t, "Backend", nil)
		c := f.candidate(t, "Lucía", "lucia@example.com", app.ID, "Pre-entrevista")

		assert.ErrorIs(t, svc.Delete(context.Background(), app.ID), domain.ErrConflict)

		_, err := f.cands.Delete(context.Background(), f.actor, c.ID)
		require.NoError(t, err)
		require.NoError(t, svc.Delete(context.Background(), app.ID))
		assert.ErrorIs(t, svc.Delete(context.Background(), app.ID), domain.ErrNotFound)
	}
}

func TestApplicationDeleteGuardPostulationOnly(t *testing.T) {
	f := newFixture(t, postulationCaps)
	svc, _, _ := newAppService(f)
	app := f.app(t, "Backend", nil)
	other := f.app(t, "Frontend", nil)
	c := f.candidate(t, "Lucía", "lucia@example.com", other.ID, "Pre-entrevista")
	f.postulation(t, c.ID, app.ID, "Pre-entrevista")

	assert.ErrorIs(t, svc.Delete(context.Background(), app.ID), domain.ErrConflict)
}

func TestApplicationExport(t *testing.T) {
	f := newFixture(t, legacyCaps)
	svc, _, w := newAppService(f)
	app := f.app(t, "Backend", nil)
	f.candidate(t, "Lucía", "lucia@example.com", app.ID, "Pre-entrevista")

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), app.ID, &buf))
	assert.Equal(t, "xlsx", buf.String())
	assert.Equal(t, app.ID, w.app.ID)
	assert.Len(t, w.views, 1)

	noExport := NewApplicationService(f.store, f.resolver, nil, nil, zap.NewNop())
	assert.ErrorIs(t, noExport.Export(context.Background(), app.ID, &buf), domain.ErrUnsupported)
}

func TestApplicationList(t *testing.T) {
	f := newFixture(t, legacyCaps)
	svc, _, _ := newAppService(f)
	f.app(t, "Backend", nil)
	f.app(t, "Frontend", nil)

	items, total, err := svc.List(context.Background(), domain.ApplicationFilter{Status: domain.ApplicationActive})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	_, _, err = svc.List(context.Background(), domain.ApplicationFilter{Status: "Nope"})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}
