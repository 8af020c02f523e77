package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"label-cabinet/backstage/internal/constants"
	gormModels "label-cabinet/backstage/internal/models/gorm"
	"label-cabinet/backstage/internal/realtime"
)

// Setup test database. A single connection keeps every query on the same
// in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

func seedProfile(t *testing.T, db *gorm.DB, id, email string, role constants.Role, balance int64) *gormModels.Profile {
	p := &gormModels.Profile{
		ID:       id,
		Email:    email,
		Nickname: defaultNickname(email),
		Role:     role,
		Balance:  decimal.NewFromInt(balance),
		MemberID: "LBL-" + id[len(id)-6:],
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
	return p
}

func balanceOf(t *testing.T, db *gorm.DB, id string) decimal.Decimal {
	var p gormModels.Profile
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to load profile: %v", err)
	}
	return p.Balance
}

// Mock realtime publisher
type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) count(table string, eventType realtime.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Table == table && ev.Type == eventType {
			n++
		}
	}
	return n
}

// Mock object storage
type fakeStorage struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, bucket, objectPath string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[bucket+"/"+objectPath] = data
	return f.PublicURL(bucket, objectPath), nil
}

func (f *fakeStorage) PublicURL(bucket, objectPath string) string {
	return "https://cdn.test/" + bucket + "/" + objectPath
}

func (f *fakeStorage) Delete(_ context.Context, bucket string, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		delete(f.uploads, bucket+"/"+p)
	}
	return nil
}

// Mock mailer
type fakeMailer struct {
	to   []string
	body []string
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, _ string, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.body = append(m.body, htmlBody)
	return nil
}

// Mock auth admin API
type fakeAuthAdmin struct {
	updates map[string]string
	err     error
}

func (a *fakeAuthAdmin) UpdateUserEmail(_ context.Context, userID, email string) error {
	if a.err != nil {
		return a.err
	}
	if a.updates == nil {
		a.updates = make(map[string]string)
	}
	a.updates[userID] = email
	return nil
}

// pngBytes is the smallest payload http.DetectContentType reports as image/png.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
