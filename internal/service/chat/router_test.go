package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"campus_chat_server/internal/dao/memstore"
	"campus_chat_server/internal/dao/mysql/repository"
	"campus_chat_server/internal/dto/respond"
	"campus_chat_server/internal/model"
	"campus_chat_server/internal/service/permission"
	"campus_chat_server/internal/service/presence"
	"campus_chat_server/internal/service/unread"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/keylock"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var (
	alumni  = model.Principal{ID: "A", Role: model.RoleAlumni}
	student = model.Principal{ID: "S", Role: model.RoleStudent}
	faculty = model.Principal{ID: "F", Role: model.RoleFaculty}
)

type recordSink struct {
	mu     sync.Mutex
	events []presence.Event
}

func (s *recordSink) Deliver(evt presence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *recordSink) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (s *recordSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type fullSink struct{}

func (fullSink) Deliver(presence.Event) error { return errors.New("send buffer full") }

type failingMessages struct {
	repository.MessageRepository
}

func (failingMessages) Create(*model.Message) error {
	return errorx.Wrap(errors.New("dial tcp: connection refused"), errorx.CodeDBError, "写入消息失败")
}

type fixture struct {
	router   *Router
	repos    *repository.Repositories
	registry *presence.Registry
	tracker  *unread.Tracker
}

func newFixture(t *testing.T, wrap func(*repository.Repositories) *repository.Repositories) *fixture {
	t.Helper()
	zap.ReplaceGlobals(zaptest.NewLogger(t))

	repos := memstore.New().Repositories()
	for _, p := range []model.Principal{alumni, student, faculty} {
		if err := repos.User.Create(&model.UserInfo{Uuid: p.ID, Nickname: p.ID, Role: p.Role}); err != nil {
			t.Fatal(err)
		}
	}
	accept := func(a, b string) {
		low, high := model.CanonicalPair(a, b)
		if err := repos.Connection.Create(&model.Connection{LowId: low, HighId: high, Status: model.ConnectionAccepted, RequesterId: a}); err != nil {
			t.Fatal(err)
		}
	}
	accept("A", "S")
	accept("F", "S")

	if wrap != nil {
		repos = wrap(repos)
	}
	locks := keylock.New()
	reg := presence.NewRegistry(nil)
	tracker := unread.NewTracker(unread.NewCacheCounterStore(memstore.NewCache()), repos.Message, locks)
	router := NewRouter(RouterDeps{
		Repos:      repos,
		Gate:       permission.NewGate(repos),
		Presence:   reg,
		Dispatcher: NewLocalDispatcher(reg, nil),
		Unread:     tracker,
		Locks:      locks,
	})
	return &fixture{router: router, repos: repos, registry: reg, tracker: tracker}
}

func (f *fixture) session(t *testing.T, principal, handle string) *recordSink {
	t.Helper()
	sink := &recordSink{}
	if _, err := f.registry.Register(principal, handle, sink); err != nil {
		t.Fatal(err)
	}
	return sink
}

func (f *fixture) unreadOf(t *testing.T, viewer, peer string) int64 {
	t.Helper()
	snap, err := f.tracker.Snapshot(context.Background(), viewer)
	if err != nil {
		t.Fatal(err)
	}
	return snap[peer]
}

func TestValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cases := []struct {
		name, to, content string
	}{
		{"empty content", "S", "   "},
		{"self", "A", "hi"},
		{"empty receiver", "", "hi"},
		{"too long", "S", strings.Repeat("字", 4001)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.router.Send(ctx, alumni, tc.to, tc.content, "")
			if errorx.Kind(err) != errorx.KindValidation {
				t.Fatalf("kind = %s (%v)", errorx.Kind(err), err)
			}
		})
	}

	_, err := f.router.Send(ctx, alumni, "ghost", "hi", "")
	if errorx.Kind(err) != errorx.KindNotFound {
		t.Fatalf("unknown receiver kind = %s", errorx.Kind(err))
	}
}

func TestFailClosedSend(t *testing.T) {
	f := newFixture(t, nil)
	origin := f.session(t, "S", "s1")
	other := f.session(t, "S", "s2")
	receiver := f.session(t, "A", "a1")

	_, err := f.router.Send(context.Background(), student, "A", "hi", "s1")
	if !errors.Is(err, errorx.ErrPermissionDenied) {
		t.Fatalf("want PermissionDenied, got %v", err)
	}
	msgs, _ := f.repos.Message.FindByUserIds("S", "A")
	if len(msgs) != 0 {
		t.Fatalf("persisted %d messages on denied send", len(msgs))
	}
	if f.unreadOf(t, "A", "S") != 0 {
		t.Fatal("denied send must not touch unread")
	}
	if origin.count(respond.EventMessageError) != 1 || origin.total() != 1 {
		t.Fatalf("origin events = %+v", origin.events)
	}
	if other.total() != 0 || receiver.total() != 0 {
		t.Fatal("only the origin session should hear about the failure")
	}
}

func TestMultiSessionFanout(t *testing.T) {
	f := newFixture(t, nil)
	a1 := f.session(t, "A", "a1")
	a2 := f.session(t, "A", "a2")
	s1 := f.session(t, "S", "s1")
	s2 := f.session(t, "S", "s2")
	bystander := f.session(t, "F", "f1")

	msg, err := f.router.Send(context.Background(), alumni, "S", "welcome", "a1")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Id == 0 {
		t.Fatal("message id not assigned")
	}

	for name, sink := range map[string]*recordSink{"s1": s1, "s2": s2} {
		if sink.count(respond.EventNewMessage) != 1 || sink.total() != 1 {
			t.Fatalf("%s events = %+v", name, sink.events)
		}
		got := sink.events[0].Data.(respond.MessageRespond)
		if got.Id != msg.Id || got.Content != "welcome" {
			t.Fatalf("%s payload = %+v", name, got)
		}
	}
	if a2.count(respond.EventMessageSent) != 1 || a2.total() != 1 {
		t.Fatalf("a2 events = %+v", a2.events)
	}
	if a1.total() != 0 {
		t.Fatalf("origin session must not be echoed, got %+v", a1.events)
	}
	if bystander.total() != 0 {
		t.Fatal("unrelated principal received events")
	}

	// REST 发送没有发起会话，发送方所有会话都收到回显
	if _, err := f.router.Send(context.Background(), alumni, "S", "again", ""); err != nil {
		t.Fatal(err)
	}
	if a1.count(respond.EventMessageSent) != 1 || a2.count(respond.EventMessageSent) != 2 {
		t.Fatalf("echo counts a1=%d a2=%d", a1.count(respond.EventMessageSent), a2.count(respond.EventMessageSent))
	}
}

func TestOfflineReceiverStillCounts(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 3; i++ {
		if _, err := f.router.Send(context.Background(), alumni, "S", fmt.Sprintf("m%d", i), ""); err != nil {
			t.Fatal(err)
		}
	}
	if got := f.unreadOf(t, "S", "A"); got != 3 {
		t.Fatalf("unread = %d", got)
	}
}

func TestFullBufferDoesNotFailSend(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.registry.Register("S", "slow", fullSink{}); err != nil {
		t.Fatal(err)
	}
	fast := f.session(t, "S", "fast")
	if _, err := f.router.Send(context.Background(), alumni, "S", "hi", ""); err != nil {
		t.Fatal(err)
	}
	if fast.count(respond.EventNewMessage) != 1 {
		t.Fatal("healthy session should still receive")
	}
}

func TestStoreErrorNotifiesOriginOnly(t *testing.T) {
	f := newFixture(t, func(r *repository.Repositories) *repository.Repositories {
		return repository.Compose(r.User, r.Connection, failingMessages{r.Message})
	})
	origin := f.session(t, "A", "a1")
	other := f.session(t, "A", "a2")
	receiver := f.session(t, "S", "s1")

	_, err := f.router.Send(context.Background(), alumni, "S", "welcome", "a1")
	if errorx.Kind(err) != errorx.KindTransientStore {
		t.Fatalf("kind = %s", errorx.Kind(err))
	}
	if origin.count(respond.EventMessageError) != 1 {
		t.Fatalf("origin events = %+v", origin.events)
	}
	text, _ := origin.events[0].Data.(string)
	if !strings.HasPrefix(text, errorx.KindTransientStore) || strings.Contains(text, "connection refused") {
		t.Fatalf("message error text = %q", text)
	}
	if other.total() != 0 || receiver.total() != 0 {
		t.Fatal("failure leaked to other sessions")
	}
	if f.unreadOf(t, "S", "A") != 0 {
		t.Fatal("failed send must not count as unread")
	}
}

// 校友 A 与学生 S 已连接的完整流程
func TestAlumniStudentScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.router.Send(ctx, student, "A", "hi", "")
	if errorx.Kind(err) != errorx.KindPermissionDenied {
		t.Fatalf("first student send: %v", err)
	}

	if _, err := f.router.Send(ctx, alumni, "S", "welcome", ""); err != nil {
		t.Fatal(err)
	}
	if got := f.unreadOf(t, "S", "A"); got != 1 {
		t.Fatalf("unread[S][A] = %d", got)
	}

	if err := f.tracker.OnConversationOpened(ctx, "S", "A"); err != nil {
		t.Fatal(err)
	}
	if got := f.unreadOf(t, "S", "A"); got != 0 {
		t.Fatalf("unread[S][A] after open = %d", got)
	}

	if _, err := f.router.Send(ctx, student, "A", "thanks", ""); err != nil {
		t.Fatalf("student send after unlock: %v", err)
	}
	if got := f.unreadOf(t, "A", "S"); got != 1 {
		t.Fatalf("unread[A][S] = %d", got)
	}
}

func TestRemovedConnectionBlocksSend(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.repos.Connection.DeleteAccepted("F", "S"); err != nil {
		t.Fatal(err)
	}
	_, err := f.router.Send(context.Background(), faculty, "S", "hello", "")
	if errorx.Kind(err) != errorx.KindPermissionDenied {
		t.Fatalf("kind = %s", errorx.Kind(err))
	}
}

// 同一对用户并发发送，每个会话看到的 id 严格递增
func TestConcurrentSendsStayOrdered(t *testing.T) {
	f := newFixture(t, nil)
	s1 := f.session(t, "S", "s1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.router.Send(context.Background(), alumni, "S", fmt.Sprintf("m%d", i), ""); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	if s1.total() != 50 {
		t.Fatalf("received %d events", s1.total())
	}
	var last uint64
	for _, e := range s1.events {
		id := e.Data.(respond.MessageRespond).Id
		if id <= last {
			t.Fatalf("id %d after %d", id, last)
		}
		last = id
	}
	if got := f.unreadOf(t, "S", "A"); got != 50 {
		t.Fatalf("unread = %d", got)
	}
}

// ctxDispatcher 记录推送时 ctx 的状态
type ctxDispatcher struct {
	err         error
	hasDeadline bool
}

func (d *ctxDispatcher) Dispatch(ctx context.Context, _ Delivery) error {
	d.err = ctx.Err()
	_, d.hasDeadline = ctx.Deadline()
	return nil
}

func TestDeliveryOutlivesSenderContext(t *testing.T) {
	f := newFixture(t, nil)
	d := &ctxDispatcher{}
	f.router.dispatcher = d

	// 发送方在入库前已经断开
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.router.Send(ctx, alumni, "S", "hello", ""); err != nil {
		t.Fatal(err)
	}
	if d.err != nil || !d.hasDeadline {
		t.Fatalf("dispatch ctx err=%v deadline=%v", d.err, d.hasDeadline)
	}
	if got := f.unreadOf(t, "S", "A"); got != 1 {
		t.Fatalf("unread = %d", got)
	}
}
