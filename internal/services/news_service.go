package services

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/models/dtos"
	gormModels "label-cabinet/backstage/internal/models/gorm"
	"label-cabinet/backstage/internal/newsmd"
	"label-cabinet/backstage/internal/realtime"
)

const newsCacheTTL = 30 * time.Second

// NewsService publishes label announcements, immediately or on schedule.
type NewsService struct {
	db       *gorm.DB
	news     *repositories.NewsRepository
	cache    common.CacheInterface
	realtime realtime.Publisher
	loads    singleflight.Group
}

func NewNewsService(db *gorm.DB, cache common.CacheInterface, rt realtime.Publisher) *NewsService {
	return &NewsService{
		db:       db,
		news:     repositories.NewNewsRepository(db),
		cache:    cache,
		realtime: rt,
	}
}

func validateNews(req dtos.NewsReq) (title, content, category string, err error) {
	title = strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > 200 {
		return "", "", "", constants.Invalid("title is required and must be at most 200 characters")
	}
	content = strings.TrimSpace(req.Content)
	if content == "" {
		return "", "", "", constants.Invalid("content is required")
	}
	category = strings.TrimSpace(req.Category)
	if category == "" {
		category = "update"
	}
	if !constants.NewsCategories[category] {
		return "", "", "", constants.Invalid("unknown category %q", category)
	}
	return title, content, category, nil
}

// schedule publishes the item now unless it is scheduled for the future.
// Already published items stay published.
func schedule(n *gormModels.News, scheduledFor *time.Time, now time.Time) (publishedNow bool) {
	if n.Published {
		return false
	}
	if scheduledFor != nil && scheduledFor.After(now) {
		at := scheduledFor.UTC()
		n.ScheduledFor = &at
		return false
	}
	n.ScheduledFor = nil
	n.Published = true
	n.PublishedAt = &now
	return true
}

func (s *NewsService) invalidate() {
	s.cache.DeletePrefix(string(constants.CachePrefixNewsList))
}

func (s *NewsService) CreateNews(ctx context.Context, authorID string, req dtos.NewsReq) (*gormModels.News, error) {
	title, content, category, err := validateNews(req)
	if err != nil {
		return nil, err
	}

	item := &gormModels.News{
		Title:    title,
		Content:  content,
		Category: category,
		AuthorID: authorID,
	}
	publishedNow := schedule(item, req.ScheduledFor, time.Now().UTC())

	if err := s.news.Create(ctx, item); err != nil {
		return nil, err
	}

	s.invalidate()
	if publishedNow {
		s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventInsert, constants.TableNews, item, ""))
	}
	return item, nil
}

func (s *NewsService) UpdateNews(ctx context.Context, id string, req dtos.NewsReq) (*gormModels.News, error) {
	title, content, category, err := validateNews(req)
	if err != nil {
		return nil, err
	}

	item, err := s.news.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Title, item.Content, item.Category = title, content, category
	publishedNow := schedule(item, req.ScheduledFor, time.Now().UTC())

	if err := s.news.Save(ctx, item); err != nil {
		return nil, err
	}

	s.invalidate()
	eventType := realtime.EventUpdate
	if publishedNow {
		eventType = realtime.EventInsert
	}
	if item.Published {
		s.realtime.Publish(ctx, realtime.NewEvent(eventType, constants.TableNews, item, ""))
	}
	return item, nil
}

func (s *NewsService) DeleteNews(ctx context.Context, id string) error {
	if err := s.news.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventDelete, constants.TableNews, map[string]any{"id": id}, ""))
	return nil
}

// ListPublished returns a page of published news. Pages are cached briefly and
// concurrent misses share one query.
func (s *NewsService) ListPublished(ctx context.Context, category string, page, perPage int) (*dtos.Page[gormModels.News], error) {
	category = strings.TrimSpace(category)
	key := common.CacheKey(string(constants.CachePrefixNewsList), category, strconv.Itoa(page), strconv.Itoa(perPage))

	var cached dtos.Page[gormModels.News]
	if s.cache.GetInto(key, &cached) {
		return &cached, nil
	}

	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		items, total, err := s.news.ListPublished(ctx, category, page, perPage)
		if err != nil {
			return nil, err
		}
		result := &dtos.Page[gormModels.News]{Items: items, Total: total, Page: page, PerPage: perPage}
		s.cache.Set(key, result, newsCacheTTL)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dtos.Page[gormModels.News]), nil
}

// ListAllNews includes scheduled items, for staff.
func (s *NewsService) ListAllNews(ctx context.Context) ([]gormModels.News, error) {
	return s.news.ListAll(ctx)
}

// GetNews returns an item with its rendered HTML. Unpublished items are visible to staff only.
func (s *NewsService) GetNews(ctx context.Context, id string, staff bool) (*dtos.NewsResponse, error) {
	item, err := s.news.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Published && !staff {
		return nil, constants.ErrNotFound
	}

	key := common.CacheKey(string(constants.CachePrefixNewsHTML), item.ID, strconv.FormatInt(item.UpdatedAt.UnixNano(), 10))
	var html string
	if !s.cache.GetInto(key, &html) {
		html = newsmd.Render(item.Content)
		s.cache.Set(key, html, 10*time.Minute)
	}
	return &dtos.NewsResponse{News: *item, HTML: html}, nil
}

// PublishDue publishes every scheduled item whose time has come and returns how many were published.
func (s *NewsService) PublishDue(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	due, err := s.news.DueScheduled(ctx, now)
	if err != nil {
		return 0, err
	}

	published := 0
	for i := range due {
		ok, err := s.news.MarkPublished(ctx, due[i].ID, now)
		if err != nil {
			return published, err
		}
		if !ok {
			continue
		}
		published++
		due[i].Published = true
		due[i].PublishedAt = &now
		s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventInsert, constants.TableNews, due[i], ""))
	}

	if published > 0 {
		s.invalidate()
		logging.Info("Published scheduled news", "count", published)
	}
	return published, nil
}
