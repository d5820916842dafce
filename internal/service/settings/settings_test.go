package settings

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state/statetest"
)

func TestImages(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := statetest.NewMem()
	st := state.New(mem.Tables(), log)
	clock := domain.FixedClock(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), time.UTC)
	svc := New(st, audit.New(st, clock, log), log)
	ctx := context.Background()

	v, err := svc.SetProfileImage(ctx, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", v.ProfileImage)
	assert.False(t, v.PasswordSet)
	assert.Equal(t, "data:image/png;base64,AAAA", mem.Settings.Value(domain.SettingProfileImage))

	v, err = svc.SetSignatureImage(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, v.SignatureImage)

	_, err = svc.SetProfileImage(ctx, "https://example.com/a.png")
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = svc.SetProfileImage(ctx, "data:image/png;base64,"+strings.Repeat("A", MaxImageBytes))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	mem.Settings.Fail = true
	_, err = svc.SetProfileImage(ctx, "data:image/png;base64,BBBB")
	require.ErrorIs(t, err, state.ErrNotPersisted)
	assert.Equal(t, "data:image/png;base64,AAAA", svc.Get(ctx).ProfileImage)
}
