package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"blogify/internal/cache"
	"blogify/internal/models"
	"blogify/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	feedItemCount = 20
	feedCacheKey  = "feed:rss"
	feedCacheTTL  = time.Hour
)

type FeedHandler struct {
	db       *gorm.DB
	cache    *cache.Cache
	logger   *zap.Logger
	siteURL  string
	siteName string
}

func NewFeedHandler(conn *gorm.DB, c *cache.Cache, siteURL, siteName string, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{db: conn, cache: c, logger: logger, siteURL: siteURL, siteName: siteName}
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Author      string   `xml:"author"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// RSS serves the site feed: the 20 most recent published posts. The rendered
// XML is cached for an hour.
func (h *FeedHandler) RSS(c *gin.Context) {
	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("Cache-Control", "public, max-age=3600, s-maxage=3600")

	if cached := h.cache.Get(feedCacheKey); cached != nil {
		if body, ok := cached.([]byte); ok {
			c.Writer.Write(body)
			return
		}
	}

	var posts []models.Post
	err := h.db.Preload("User").Preload("Categories").
		Where("published = ?", true).
		Order("published_at DESC").
		Limit(feedItemCount).
		Find(&posts).Error
	if err != nil {
		h.logger.Error("Error generating RSS feed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error generating feed")
		return
	}

	body, err := h.render(posts)
	if err != nil {
		h.logger.Error("Error generating RSS feed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error generating feed")
		return
	}

	h.cache.Set(feedCacheKey, body, feedCacheTTL)
	c.Writer.Write(body)
}

func (h *FeedHandler) render(posts []models.Post) ([]byte, error) {
	items := make([]rssItem, 0, len(posts))
	for i := range posts {
		post := &posts[i]
		link := fmt.Sprintf("%s/posts/%s", h.siteURL, post.Slug)

		description := post.Excerpt
		if description == "" {
			description = utils.Truncate(utils.PlainText(post.Content), 200)
		}

		author := post.User.Name
		if author == "" {
			author = post.User.Username
		}

		pubDate := post.CreatedAt
		if post.PublishedAt != nil {
			pubDate = *post.PublishedAt
		}

		categories := make([]string, 0, len(post.Categories))
		for _, category := range post.Categories {
			categories = append(categories, category.Name)
		}

		items = append(items, rssItem{
			Title:       post.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Description: description,
			PubDate:     pubDate.UTC().Format(time.RFC1123Z),
			Author:      author,
			Categories:  categories,
		})
	}

	feed := rssFeed{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:         h.siteName,
			Link:          h.siteURL,
			Description:   fmt.Sprintf("%s - a blog platform for writers and readers", h.siteName),
			Language:      "en-us",
			LastBuildDate: time.Now().UTC().Format(time.RFC1123Z),
			AtomLink: atomLink{
				Href: h.siteURL + "/feed",
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: items,
		},
	}

	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
