package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"comictag/internal/catalog"
	"comictag/internal/logging"
	"comictag/internal/metadata"
)

// Client answers catalog calls from the Store before asking the wrapped catalog.
type Client struct {
	store  *Store
	inner  catalog.Client
	images catalog.ImageFetcher
}

var (
	_ catalog.Client       = (*Client)(nil)
	_ catalog.ImageFetcher = (*Client)(nil)
)

// Wrap returns a caching view of inner. images may be nil when image
// requests are not needed.
func (s *Store) Wrap(inner catalog.Client, images catalog.ImageFetcher) *Client {
	return &Client{store: s, inner: inner, images: images}
}

// Name returns the wrapped catalog name.
func (c *Client) Name() string { return c.inner.Name() }

// Search returns the cached page for q or queries the wrapped catalog.
func (c *Client) Search(ctx context.Context, q catalog.Query) (catalog.SearchPage, error) {
	key := queryKey(q)
	var cached catalog.SearchPage
	if c.lookupJSON(ctx, "searches", "query_key", key, &cached) {
		return cached, nil
	}
	page, err := c.inner.Search(ctx, q)
	if err != nil {
		return catalog.SearchPage{}, err
	}
	c.storeJSON(ctx, "searches", "query_key", key, page)
	return page, nil
}

// FetchIssue returns cached issue metadata or fetches it.
func (c *Client) FetchIssue(ctx context.Context, issueID string) (metadata.Metadata, error) {
	key := strings.TrimSpace(issueID)
	var cached metadata.Metadata
	if c.lookupJSON(ctx, "issues", "issue_id", key, &cached) {
		return cached, nil
	}
	md, err := c.inner.FetchIssue(ctx, issueID)
	if err != nil {
		return metadata.Metadata{}, err
	}
	c.storeJSON(ctx, "issues", "issue_id", key, md)
	return md, nil
}

// FetchImage returns cached image bytes or downloads them.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if c.images == nil {
		return nil, catalog.NewError("cache", catalog.CodeNotFound, "no image fetcher configured", nil)
	}
	var (
		data     []byte
		storedAt int64
	)
	err := c.store.db.QueryRowContext(ctx,
		"SELECT data, stored_at FROM images WHERE url = ?", url).Scan(&data, &storedAt)
	switch {
	case err == nil && c.store.fresh(storedAt):
		return data, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		c.warnRead(err)
	}

	data, err = c.images.FetchImage(ctx, url)
	if err != nil {
		return nil, err
	}
	writeErr := retryOnBusy(ctx, func() error {
		_, execErr := c.store.db.ExecContext(ctx,
			"INSERT OR REPLACE INTO images (url, data, stored_at) VALUES (?, ?, ?)",
			url, data, c.store.now().Unix())
		return execErr
	})
	if writeErr != nil {
		c.warnWrite(writeErr)
	}
	return data, nil
}

func (c *Client) lookupJSON(ctx context.Context, table, keyColumn, key string, out any) bool {
	var (
		payload  string
		storedAt int64
	)
	query := fmt.Sprintf("SELECT payload, stored_at FROM %s WHERE source = ? AND %s = ?", table, keyColumn)
	err := c.store.db.QueryRowContext(ctx, query, c.inner.Name(), key).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		c.warnRead(err)
		return false
	}
	if !c.store.fresh(storedAt) {
		return false
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		c.warnRead(fmt.Errorf("decode %s row: %w", table, err))
		return false
	}
	c.store.logger.Debug("catalog cache hit",
		logging.String("table", table),
		logging.String("key", key))
	return true
}

func (c *Client) storeJSON(ctx context.Context, table, keyColumn, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.warnWrite(fmt.Errorf("encode %s row: %w", table, err))
		return
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (source, %s, payload, stored_at) VALUES (?, ?, ?, ?)", table, keyColumn)
	err = retryOnBusy(ctx, func() error {
		_, execErr := c.store.db.ExecContext(ctx, query, c.inner.Name(), key, string(payload), c.store.now().Unix())
		return execErr
	})
	if err != nil {
		c.warnWrite(err)
	}
}

func (c *Client) warnRead(err error) {
	logging.WarnWithContext(c.store.logger, "catalog cache read failed", "catalog_cache_read_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run `comictag cache clear --reset` if the database is damaged"),
		logging.String(logging.FieldImpact, "request sent to the remote catalog"))
}

func (c *Client) warnWrite(err error) {
	logging.WarnWithContext(c.store.logger, "catalog cache write failed", "catalog_cache_write_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check free space and permissions of the cache directory"),
		logging.String(logging.FieldImpact, "response not cached"))
}

// queryKey is a stable identity for the fields that change search results.
func queryKey(q catalog.Query) string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(q.Series)),
		strings.TrimSpace(q.IssueNumber),
		strconv.Itoa(q.Year),
		strconv.FormatBool(q.Literal),
		strconv.Itoa(max(q.Page, 1)),
		strconv.Itoa(q.PageSize),
	}, "|")
}
