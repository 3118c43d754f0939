package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monkeybot/internal/common/ratelimit"
	"monkeybot/internal/platform/telegram"
)

type fakeGateway struct {
	sends     []string
	edits     []string
	callbacks []string
	alerts    []bool
}

func (f *fakeGateway) SendWithKeyboard(_ context.Context, _ int64, text string, _ telegram.InlineKeyboardMarkup) (int64, error) {
	f.sends = append(f.sends, text)
	return 1, nil
}

func (f *fakeGateway) EditWithKeyboard(_ context.Context, _, _ int64, text string, _ telegram.InlineKeyboardMarkup) error {
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeGateway) AnswerCallback(_ context.Context, _ string, text string, alert bool) error {
	f.callbacks = append(f.callbacks, text)
	f.alerts = append(f.alerts, alert)
	return nil
}

func newTestService(gw Gateway) (*Service, clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	svc := New(gw, ratelimit.NewTable(clock), clock, zerolog.Nop())
	return svc, clock
}

func TestRecord_CountsAndNames(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{})

	svc.Record(100, 1, "Петя")
	svc.Record(100, 1, "Петя")
	svc.Record(100, 2, "Вася")

	assert.Equal(t, 2, svc.DailyCount(100, 1))
	assert.Equal(t, 1, svc.DailyCount(100, 2))

	name, ok := svc.ResolveName(1)
	require.True(t, ok)
	assert.Equal(t, "Петя", name)

	_, ok = svc.ResolveName(99)
	assert.False(t, ok)
}

func TestDailyCount_PrunesTrailingWindow(t *testing.T) {
	svc, clock := newTestService(&fakeGateway{})

	svc.Record(100, 1, "Петя")
	clock.Advance(23 * time.Hour)
	svc.Record(100, 1, "Петя")
	assert.Equal(t, 2, svc.DailyCount(100, 1))

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, svc.DailyCount(100, 1), "first event aged out")

	clock.Advance(23 * time.Hour)
	assert.Equal(t, 0, svc.DailyCount(100, 1))
}

func TestRender_RanksWithTieBreakByFirstSeen(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{})

	svc.Record(100, 1, "Первый")
	svc.Record(100, 2, "Второй")
	svc.Record(100, 2, "Второй")
	svc.Record(100, 3, "Третий")

	text := svc.render(100, ViewAllTime)
	assert.Contains(t, text, "1. Второй — 2")
	assert.Contains(t, text, "2. Первый — 1")
	assert.Contains(t, text, "3. Третий — 1")
}

func TestRender_TopTenOnly(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{})

	for userID := int64(1); userID <= 12; userID++ {
		for i := int64(0); i < userID; i++ {
			svc.Record(100, userID, fmt.Sprintf("Юзер%d", userID))
		}
	}

	text := svc.render(100, ViewAllTime)
	assert.Contains(t, text, "10. Юзер3 — 3")
	assert.NotContains(t, text, "Юзер2")
	assert.NotContains(t, text, "11.")
}

func TestRender_DailyViewExcludesAgedUsers(t *testing.T) {
	svc, clock := newTestService(&fakeGateway{})

	svc.Record(100, 1, "Старый")
	clock.Advance(25 * time.Hour)
	svc.Record(100, 2, "Новый")

	daily := svc.render(100, ViewDaily)
	assert.NotContains(t, daily, "Старый")
	assert.Contains(t, daily, "1. Новый — 1")

	alltime := svc.render(100, ViewAllTime)
	assert.Contains(t, alltime, "Старый")
}

func TestRender_ScopedToChat(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{})

	svc.Record(100, 1, "Петя")
	svc.Record(200, 2, "Вася")

	text := svc.render(100, ViewAllTime)
	assert.Contains(t, text, "Петя")
	assert.NotContains(t, text, "Вася")
}

func TestHandleRefresh_RateLimited(t *testing.T) {
	gw := &fakeGateway{}
	svc, clock := newTestService(gw)
	ctx := context.Background()

	svc.Record(100, 1, "Петя")

	svc.HandleRefresh(ctx, 100, 7, 55, "cb1", ViewDaily)
	require.Len(t, gw.edits, 1)
	before := gw.edits[0]

	// Second refresh inside the window: notice only, no edit.
	clock.Advance(10 * time.Second)
	svc.HandleRefresh(ctx, 100, 7, 55, "cb2", ViewDaily)
	require.Len(t, gw.edits, 1)
	require.Len(t, gw.callbacks, 2)
	assert.Contains(t, gw.callbacks[1], "Не так часто")
	assert.True(t, gw.alerts[1])

	// A denied attempt does not push the cooldown forward.
	clock.Advance(5 * time.Second)
	svc.HandleRefresh(ctx, 100, 7, 55, "cb3", ViewDaily)
	require.Len(t, gw.edits, 2)
	assert.Equal(t, before, gw.edits[1], "content unchanged by denied attempt")
}

func TestHandleRefresh_ViewsHaveIndependentCooldowns(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw)
	ctx := context.Background()

	svc.HandleRefresh(ctx, 100, 7, 55, "cb1", ViewDaily)
	svc.HandleRefresh(ctx, 100, 7, 56, "cb2", ViewAllTime)

	assert.Len(t, gw.edits, 2)
}

func TestShow_SendsWithRefreshButton(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw)

	svc.Record(100, 1, "Петя")
	svc.ShowDaily(context.Background(), 100)
	svc.ShowAllTime(context.Background(), 100)

	require.Len(t, gw.sends, 2)
	assert.Contains(t, gw.sends[0], "за 24 часа")
	assert.Contains(t, gw.sends[1], "за всё время")
}

func TestKeyboard_EmbedsViewTag(t *testing.T) {
	kb := keyboard(ViewDaily)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "lb:refresh:daily", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "lb:refresh:alltime", keyboard(ViewAllTime).InlineKeyboard[0][0].CallbackData)
}
