package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) hasCounter(name string, status string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, counter := range m.counters {
		if counter.name != name {
			continue
		}
		if status == "" || counter.tags["status"] == status {
			return true
		}
	}
	return false
}

func (m *captureMetricsRecorder) hasHistogram(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, histogram := range m.histograms {
		if histogram.name == name {
			return true
		}
	}
	return false
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func (l *captureLogger) count(level string, contains string) int {
	total := 0
	for _, record := range l.snapshot() {
		if record.level == level && strings.Contains(record.msg, contains) {
			total++
		}
	}
	return total
}

type stubLoggerProvider struct {
	logger Logger
}

func (p stubLoggerProvider) GetLogger(string) Logger {
	return p.logger
}

// scriptedDirectory records every call in order. List results are consumed
// from lists; the last one repeats.
type scriptedDirectory struct {
	mu        sync.Mutex
	lists     [][]RemoteSubscription
	listErr   error
	createErr error
	deleteErr func(ids []string) error
	calls     []string
	creates   [][]DesiredSubscription
	deletes   [][]string
}

func (d *scriptedDirectory) List(context.Context) ([]RemoteSubscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "list")
	if d.listErr != nil {
		return nil, d.listErr
	}
	if len(d.lists) == 0 {
		return []RemoteSubscription{}, nil
	}
	current := d.lists[0]
	if len(d.lists) > 1 {
		d.lists = d.lists[1:]
	}
	return append([]RemoteSubscription{}, current...), nil
}

func (d *scriptedDirectory) Create(_ context.Context, entries []DesiredSubscription) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf("create:%d", len(entries)))
	d.creates = append(d.creates, append([]DesiredSubscription{}, entries...))
	return d.createErr
}

func (d *scriptedDirectory) Delete(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "delete:"+strings.Join(ids, ","))
	d.deletes = append(d.deletes, append([]string{}, ids...))
	if d.deleteErr != nil {
		return d.deleteErr(ids)
	}
	return nil
}

func (d *scriptedDirectory) callLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.calls...)
}

type fakeTask struct {
	scheduler *fakeScheduler
	index     int
}

func (t fakeTask) Cancel() bool {
	return t.scheduler.cancel(t.index)
}

type scheduledEntry struct {
	delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

// fakeScheduler never runs tasks on its own; tests call fire.
type fakeScheduler struct {
	mu      sync.Mutex
	entries []*scheduledEntry
}

func (s *fakeScheduler) Schedule(delay time.Duration, fn func()) ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &scheduledEntry{delay: delay, fn: fn})
	return fakeTask{scheduler: s, index: len(s.entries) - 1}
}

func (s *fakeScheduler) cancel(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[index]
	if entry.fired || entry.cancelled {
		return false
	}
	entry.cancelled = true
	return true
}

func (s *fakeScheduler) scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *fakeScheduler) entry(index int) scheduledEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.entries[index]
}

// fire runs the task at index even if it was cancelled, which models a
// timer that had already fired when Cancel raced it.
func (s *fakeScheduler) fire(index int) {
	s.mu.Lock()
	entry := s.entries[index]
	entry.fired = true
	fn := entry.fn
	s.mu.Unlock()
	fn()
}

type captureNotifier struct {
	mu            sync.Mutex
	notifications []Notification
	err           error
}

func (n *captureNotifier) Notify(_ context.Context, notification Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
	return n.err
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notifications)
}

type memoryActivitySink struct {
	mu      sync.Mutex
	entries []ActivityEntry
	err     error
}

func (s *memoryActivitySink) Record(_ context.Context, entry ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memoryActivitySink) snapshot() []ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ActivityEntry{}, s.entries...)
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
	dir    *scriptedDirectory
}

func (s *recordingSleeper) Sleep(_ context.Context, delay time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, delay)
	s.mu.Unlock()
	if s.dir != nil {
		s.dir.mu.Lock()
		s.dir.calls = append(s.dir.calls, "sleep")
		s.dir.mu.Unlock()
	}
	return s.err
}

var testEventNames = []string{
	"chat.message.sent",
	"channel.followed",
	"channel.subscription.renewal",
	"channel.subscription.gifts",
	"channel.subscription.new",
	"livestream.status.updated",
	"livestream.metadata.updated",
	"moderation.banned",
	"kicks.gifted",
}

func testDesiredSet(t *testing.T) DesiredSet {
	t.Helper()
	entries := make([]DesiredSubscription, 0, len(testEventNames))
	for _, name := range testEventNames {
		entries = append(entries, DesiredSubscription{Name: name, Version: 1})
	}
	set, err := NewDesiredSet(entries...)
	if err != nil {
		t.Fatalf("desired set: %v", err)
	}
	return set
}

func remote(id string, event string, version int) RemoteSubscription {
	return RemoteSubscription{ID: id, Event: event, Version: version, Method: "webhook"}
}

// matchingRemote returns one remote entry per desired pair with ids sub_0..n.
func matchingRemote(set DesiredSet) []RemoteSubscription {
	out := make([]RemoteSubscription, 0, set.Len())
	for index, entry := range set.Entries() {
		out = append(out, remote(fmt.Sprintf("sub_%d", index), entry.Name, entry.Version))
	}
	return out
}

type controllerFixture struct {
	controller *Controller
	directory  *scriptedDirectory
	scheduler  *fakeScheduler
	notifier   *captureNotifier
	sleeper    *recordingSleeper
	activity   *memoryActivitySink
	metrics    *captureMetricsRecorder
	logger     *captureLogger
}

func newControllerFixture(t *testing.T, directory *scriptedDirectory, extra ...Option) controllerFixture {
	t.Helper()
	fixture := controllerFixture{
		directory: directory,
		scheduler: &fakeScheduler{},
		notifier:  &captureNotifier{},
		sleeper:   &recordingSleeper{dir: directory},
		activity:  &memoryActivitySink{},
		metrics:   &captureMetricsRecorder{},
		logger:    newCaptureLogger(),
	}
	opts := []Option{
		WithDirectory(directory),
		WithDesiredSet(testDesiredSet(t)),
		WithScheduler(fixture.scheduler),
		WithNotifier(fixture.notifier),
		WithSleeper(fixture.sleeper.Sleep),
		WithActivitySink(fixture.activity),
		WithMetricsRecorder(fixture.metrics),
		WithLoggerProvider(stubLoggerProvider{logger: fixture.logger}),
		WithLogger(fixture.logger),
	}
	opts = append(opts, extra...)
	controller, err := NewController(DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	fixture.controller = controller
	return fixture
}
