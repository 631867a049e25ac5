package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/officing/middleware"
	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
	"github.com/cppla/officing/services"
	"github.com/cppla/officing/testutil"
)

const testUser = "11111111-1111-4111-8111-111111111111"

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type harness struct {
	db     *gorm.DB
	router *gin.Engine
}

// newHarness mounts every controller behind a stub that trusts X-Test-User.
func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenTestDB(t)
	svcs := services.New(services.Deps{
		Store:    repository.NewGormStore(db),
		Clock:    &testutil.FixedClock{T: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		Rand:     fixedSource(0),
		Location: time.UTC,
		Rules:    rewards.DefaultRules(),
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(middleware.ContextUserIDKey, uid)
		}
		c.Next()
	})

	checkin := NewCheckInController(svcs)
	quests := NewQuestController(svcs)
	lottery := NewLotteryController(svcs)
	profile := NewProfileController(svcs)
	shop := NewShopController(svcs)
	cfg := NewConfigController(svcs)
	stats := NewStatsController(svcs, time.UTC)
	cat := NewCatalogController(db, svcs)

	r.POST("/checkin", checkin.CheckIn)
	r.GET("/checkin/stamps", checkin.Stamps)
	r.GET("/quests/daily", quests.Today)
	r.POST("/quests/daily", quests.AssignDaily)
	r.POST("/quests/complete", quests.Complete)
	r.POST("/lottery/draw", lottery.Draw)
	r.GET("/lottery/status", lottery.Status)
	r.GET("/progress", profile.Progress)
	r.GET("/titles", profile.Titles)
	r.PUT("/titles/active", profile.SetActiveTitle)
	r.GET("/shop/items", shop.Items)
	r.POST("/shop/purchase", shop.Purchase)
	r.GET("/config/rewards", cfg.GetRewards)
	r.GET("/stats/daily", stats.GetDaily)
	r.PUT("/catalog", cat.Apply)

	return &harness{db: db, router: r}
}

func (h *harness) do(t *testing.T, method, path, user, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, out
}

func field(t *testing.T, m map[string]interface{}, path ...string) interface{} {
	t.Helper()
	var cur interface{} = m
	for _, key := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			t.Fatalf("field %v: %T is not an object", path, cur)
		}
		cur = obj[key]
	}
	return cur
}

func TestCheckInAndDuplicate(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/checkin", testUser, `{"tag":"<b>home</b>"}`)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("first check-in: %d %v", status, body)
	}
	if got := field(t, body, "rewards", "ticketsEarned"); got != float64(1) {
		t.Fatalf("ticketsEarned = %v", got)
	}
	if got := field(t, body, "attendance", "location_tag"); got != "home" {
		t.Fatalf("location_tag = %v", got)
	}

	status, body = h.do(t, http.MethodPost, "/checkin", testUser, "")
	if status != http.StatusOK {
		t.Fatalf("duplicate status = %d", status)
	}
	if body["success"] != false || body["isDuplicate"] != true || body["code"] != "duplicate_checkin" {
		t.Fatalf("duplicate body = %v", body)
	}
}

func TestCheckInRejections(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		name   string
		user   string
		body   string
		status int
		code   string
	}{
		{"no user", "", "", http.StatusUnauthorized, "unauthorized"},
		{"malformed body", testUser, `{"tag":`, http.StatusBadRequest, "invalid_request"},
		{"bad timestamp", testUser, `{"timestamp":"yesterday"}`, http.StatusBadRequest, "invalid_request"},
		{"future timestamp", testUser, `{"timestamp":"2026-03-02T12:00:00Z"}`, http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := h.do(t, http.MethodPost, "/checkin", tc.user, tc.body)
			if status != tc.status || body["code"] != tc.code {
				t.Fatalf("got %d %v, want %d %s", status, body, tc.status, tc.code)
			}
		})
	}
}

func TestStampsQuery(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/checkin", testUser, "")

	status, body := h.do(t, http.MethodGet, "/checkin/stamps", testUser, "")
	if status != http.StatusOK {
		t.Fatalf("stamps: %d %v", status, body)
	}
	if got := field(t, body, "stamps", "month"); got != float64(3) {
		t.Fatalf("month = %v", got)
	}
	days, _ := field(t, body, "stamps", "days").([]interface{})
	if len(days) != 1 {
		t.Fatalf("days = %v", days)
	}

	for _, q := range []string{"?month=abc", "?year=2026&month=13"} {
		status, body = h.do(t, http.MethodGet, "/checkin/stamps"+q, testUser, "")
		if status != http.StatusBadRequest || body["code"] != "invalid_request" {
			t.Fatalf("%s: %d %v", q, status, body)
		}
	}
}

func TestQuestEndpoints(t *testing.T) {
	h := newHarness(t)
	q := testutil.SeedQuest(t, h.db, "q-s", models.RankS, models.QuestTypeDaily, 100, 20)
	log := testutil.SeedQuestLog(t, h.db, testUser, q.ID, "2026-03-02")

	status, body := h.do(t, http.MethodGet, "/quests/daily", testUser, "")
	if status != http.StatusOK {
		t.Fatalf("today: %d %v", status, body)
	}
	if list, _ := body["quests"].([]interface{}); len(list) != 1 {
		t.Fatalf("quests = %v", body["quests"])
	}

	status, body = h.do(t, http.MethodPost, "/quests/complete", testUser, `{}`)
	if status != http.StatusBadRequest || body["code"] != "invalid_request" {
		t.Fatalf("missing id: %d %v", status, body)
	}

	status, body = h.do(t, http.MethodPost, "/quests/complete", testUser, `{"questLogId":"nope"}`)
	if status != http.StatusNotFound || body["code"] != "not_found" {
		t.Fatalf("unknown id: %d %v", status, body)
	}

	status, body = h.do(t, http.MethodPost, "/quests/complete", testUser, `{"questLogId":"`+log.ID+`"}`)
	if status != http.StatusOK {
		t.Fatalf("complete: %d %v", status, body)
	}
	if got := field(t, body, "rewards", "xpEarned"); got != float64(300) {
		t.Fatalf("xpEarned = %v", got)
	}

	status, body = h.do(t, http.MethodPost, "/quests/complete", testUser, `{"questLogId":"`+log.ID+`"}`)
	if status != http.StatusBadRequest || body["code"] != "quest_already_completed" {
		t.Fatalf("second completion: %d %v", status, body)
	}
}

func TestLotteryEndpoints(t *testing.T) {
	h := newHarness(t)
	testutil.SeedPrize(t, h.db, "c-points", models.RankC, 1, models.RewardPoints, map[string]int{"amount": 5}, nil)

	status, body := h.do(t, http.MethodPost, "/lottery/draw", testUser, "")
	if status != http.StatusBadRequest || body["code"] != "insufficient_tickets" {
		t.Fatalf("draw without tickets: %d %v", status, body)
	}

	testutil.SeedTickets(t, h.db, testUser, 1)
	status, body = h.do(t, http.MethodPost, "/lottery/draw", testUser, "")
	if status != http.StatusOK {
		t.Fatalf("draw: %d %v", status, body)
	}
	if _, nested := body["result"]; nested {
		t.Fatalf("draw result must be top level: %v", body)
	}
	if got := field(t, body, "rank"); got != models.RankC {
		t.Fatalf("rank = %v", got)
	}
	if got := field(t, body, "prize", "code"); got != "c-points" {
		t.Fatalf("prize = %v", body["prize"])
	}
	if body["pityCounter"] != float64(1) || body["ticketsRemaining"] != float64(0) || body["pointsAwarded"] != float64(5) {
		t.Fatalf("draw body = %v", body)
	}

	status, body = h.do(t, http.MethodGet, "/lottery/status", testUser, "")
	if status != http.StatusOK {
		t.Fatalf("status: %d %v", status, body)
	}
	if got := field(t, body, "status", "pityCounter"); got != float64(1) {
		t.Fatalf("pityCounter = %v", got)
	}
}

func TestActiveTitle(t *testing.T) {
	h := newHarness(t)
	title := testutil.SeedTitle(t, h.db, "Newcomer", models.ConditionAttendance, map[string]int{"count": 1})

	status, body := h.do(t, http.MethodPut, "/titles/active", testUser, `{"titleId":"`+title.ID+`"}`)
	if status != http.StatusBadRequest || body["code"] != "title_not_unlocked" {
		t.Fatalf("locked title: %d %v", status, body)
	}

	h.do(t, http.MethodPost, "/checkin", testUser, "")
	status, body = h.do(t, http.MethodPut, "/titles/active", testUser, `{"titleId":"`+title.ID+`"}`)
	if status != http.StatusOK || body["activeTitleId"] != title.ID {
		t.Fatalf("set title: %d %v", status, body)
	}

	status, body = h.do(t, http.MethodGet, "/progress", testUser, "")
	if status != http.StatusOK {
		t.Fatalf("progress: %d %v", status, body)
	}
	if got := field(t, body, "progress", "activeTitle", "name"); got != "Newcomer" {
		t.Fatalf("active title = %v", got)
	}

	status, body = h.do(t, http.MethodPut, "/titles/active", testUser, `{"titleId":null}`)
	if status != http.StatusOK || body["activeTitleId"] != nil {
		t.Fatalf("clear title: %d %v", status, body)
	}
}

func TestShopEndpoints(t *testing.T) {
	h := newHarness(t)
	item := testutil.SeedShopItem(t, h.db, "Ticket", models.ItemLotteryTicket, 50, map[string]int{"count": 1})

	status, body := h.do(t, http.MethodGet, "/shop/items", "", "")
	if status != http.StatusOK {
		t.Fatalf("items: %d %v", status, body)
	}
	if list, _ := body["items"].([]interface{}); len(list) != 1 {
		t.Fatalf("items = %v", body["items"])
	}

	status, body = h.do(t, http.MethodPost, "/shop/purchase", testUser, `{"itemId":"`+item.ID+`"}`)
	if status != http.StatusBadRequest || body["code"] != "insufficient_points" {
		t.Fatalf("poor purchase: %d %v", status, body)
	}

	status, body = h.do(t, http.MethodPost, "/shop/purchase", testUser, `{}`)
	if status != http.StatusBadRequest || body["code"] != "invalid_request" {
		t.Fatalf("missing item: %d %v", status, body)
	}
}

func TestRewardsConfig(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/config/rewards", "", "")
	if status != http.StatusOK {
		t.Fatalf("config: %d %v", status, body)
	}
	if got := field(t, body, "rewards", "checkinXP"); got != float64(50) {
		t.Fatalf("checkinXP = %v", got)
	}
	if got := field(t, body, "rewards", "pityThreshold"); got != float64(10) {
		t.Fatalf("pityThreshold = %v", got)
	}
}

func TestDailyStats(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/checkin", testUser, "")

	status, body := h.do(t, http.MethodGet, "/stats/daily?date=2026-03-02", "", "")
	if status != http.StatusOK {
		t.Fatalf("stats: %d %v", status, body)
	}
	if got := field(t, body, "stats", "check_ins"); got != float64(1) {
		t.Fatalf("check_ins = %v", got)
	}

	status, body = h.do(t, http.MethodGet, "/stats/daily?date=03/02/2026", "", "")
	if status != http.StatusBadRequest {
		t.Fatalf("bad date: %d %v", status, body)
	}
}

func TestCatalogApply(t *testing.T) {
	h := newHarness(t)

	doc := strings.Join([]string{
		"titles:",
		"  - code: first-day",
		"    name: First Day",
		"    condition: attendance",
		"    value: {count: 1}",
		"prizes:",
		"  - code: c-points",
		"    name: Few points",
		"    rank: C",
		"    weight: 1",
		"    reward_type: points",
		"    reward_value: {amount: 5}",
	}, "\n")

	req := httptest.NewRequest(http.MethodPut, "/catalog", strings.NewReader(doc))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply: %d %s", rec.Code, rec.Body.String())
	}

	var n int64
	h.db.Model(&models.Title{}).Where("name = ?", "First Day").Count(&n)
	if n != 1 {
		t.Fatalf("titles stored = %d", n)
	}

	req = httptest.NewRequest(http.MethodPut, "/catalog", strings.NewReader("titles:\n  - unknown_key: 1\n"))
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid_catalog") {
		t.Fatalf("invalid catalog: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCheckInWithChunkedEmptyBody(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/checkin", http.NoBody)
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", testUser)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != true || field(t, body, "attendance", "location_tag") != "office" {
		t.Fatalf("body = %v", body)
	}
}
