package helpers

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"

	mailtpl "github.com/eohue/ibookee-web-sub000/pkg/mailer/templates"
)

type staticGeo struct {
	geo mailtpl.Geo
	err error
}

func (s staticGeo) Lookup(context.Context, string) (mailtpl.Geo, error) { return s.geo, s.err }

func TestLocalizeTimesIfPossible(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	data := map[string]any{"IP": "203.0.113.9", "TimeAt": at.Format(time.RFC3339Nano), "Time": "01 March 2026, 09:30 UTC"}

	LocalizeTimesIfPossible(context.Background(), staticGeo{geo: mailtpl.Geo{City: "Seoul", Country: "KR", Timezone: "Asia/Seoul"}}, data)

	assert.Equal(t, "01 March 2026, 18:30 KST", data["Time"])
	assert.Equal(t, "Seoul, KR", data["Location"])
}

func TestLocalizeTimesIfPossible_LeavesDataOnFailure(t *testing.T) {
	data := map[string]any{"IP": "203.0.113.9", "Time": "unchanged"}
	LocalizeTimesIfPossible(context.Background(), staticGeo{err: errors.New("rate limited")}, data)
	assert.Equal(t, "unchanged", data["Time"])
	assert.NotContains(t, data, "Location")

	noIP := map[string]any{"Time": "unchanged"}
	LocalizeTimesIfPossible(context.Background(), staticGeo{}, noIP)
	assert.Equal(t, "unchanged", noIP["Time"])
}
