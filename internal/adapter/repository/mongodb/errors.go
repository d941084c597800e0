package mongodb

import (
	"context"
	"errors"
	"net"
	"regexp"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

// classify maps driver failures onto the domain error taxonomy. Timeouts and
// network errors become ErrRemoteTransient so callers know a retry is safe.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return errors.Join(domain.ErrRemoteTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(domain.ErrRemoteTransient, err)
	}
	return err
}

// regexQuote escapes user input before it is embedded in a $regex predicate.
func regexQuote(s string) string {
	return regexp.QuoteMeta(s)
}
