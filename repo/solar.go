package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/HavvokLab/autarco/model"
	"github.com/olivere/elastic/v7"
)

const (
	// DefaultESTimeout is used for index management and bulk requests
	DefaultESTimeout = 30 * time.Second
	// MaxRetryAttempts for connection errors like port exhaustion
	MaxRetryAttempts = 3
	// BaseRetryDelay is the base delay for exponential backoff
	BaseRetryDelay = 2 * time.Second
)

// isRetryableError checks if the error is a connection error that can be retried
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "cannot assign requested address") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout")
}

type SolarRepo interface {
	BulkIndex(index string, docs []interface{}) error
	UpsertSiteStation(docs []model.SiteItem) error
}

type solarRepo struct {
	elastic    *elastic.Client
	retryDelay time.Duration
}

func NewSolarRepo(elastic *elastic.Client) *solarRepo {
	return &solarRepo{
		elastic:    elastic,
		retryDelay: BaseRetryDelay,
	}
}

func (r *solarRepo) CreateIndexIfNotExist(index string) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultESTimeout)
	defer cancel()

	exist, err := r.elastic.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}

	if exist {
		return nil
	}

	result, err := r.elastic.CreateIndex(index).Do(ctx)
	if err != nil {
		// another collector may have created it in the meantime
		if elastic.IsStatusCode(err, 400) {
			return nil
		}
		return err
	}

	if !result.Acknowledged {
		return errors.New("elasticsearch did not acknowledge")
	}

	return nil
}

func (r *solarRepo) BulkIndex(index string, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}

	if err := r.CreateIndexIfNotExist(index); err != nil {
		return err
	}

	bulk := r.elastic.Bulk()
	for _, doc := range docs {
		bulk.Add(elastic.NewBulkIndexRequest().Index(index).Doc(doc))
	}

	return r.do(bulk)
}

func (r *solarRepo) UpsertSiteStation(docs []model.SiteItem) error {
	if len(docs) == 0 {
		return nil
	}

	index := model.SiteStationIndex
	if err := r.CreateIndexIfNotExist(index); err != nil {
		return err
	}

	bulk := r.elastic.Bulk()
	for _, doc := range docs {
		bulk.Add(elastic.NewBulkUpdateRequest().Index(index).Id(doc.SiteID).Doc(doc).DocAsUpsert(true))
	}

	return r.do(bulk)
}

// do sends the bulk request, retrying transport failures with backoff. Item
// failures inside an accepted request are reported as one error.
func (r *solarRepo) do(bulk *elastic.BulkService) error {
	var lastErr error
	for attempt := 0; attempt <= MaxRetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultESTimeout)
		resp, err := bulk.Do(ctx)
		cancel()

		if err == nil {
			if resp != nil && resp.Errors {
				if failed := resp.Failed(); len(failed) > 0 && failed[0].Error != nil {
					return errors.New("bulk request has failed items: " + failed[0].Error.Reason)
				}
				return errors.New("bulk request has failed items")
			}
			return nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return err
		}

		// Exponential backoff: 2s, 4s, 8s
		if attempt < MaxRetryAttempts {
			time.Sleep(r.retryDelay * time.Duration(1<<attempt))
		}
	}

	return lastErr
}
