package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// defaultNotifyDays is the look-ahead window for expiry alerts.
const defaultNotifyDays = 30

// ExpiryService scans the pantry and produces soon-to-expire alerts,
// recomputed on every query.
type ExpiryService struct {
	pantry domain.PantryStore
	now    func() time.Time
}

// NewExpiryService creates a new expiry service. The clock defaults to
// time.Now and is injectable for tests.
func NewExpiryService(pantry domain.PantryStore, now func() time.Time) *ExpiryService {
	if now == nil {
		now = time.Now
	}
	return &ExpiryService{pantry: pantry, now: now}
}

// Notifications returns one alert per pantry record whose expiry date
// falls within [today, today+thresholdDays], both bounds inclusive.
// Already-expired records and records beyond the window are omitted.
// A record whose stored date fails to parse is skipped, not fatal.
// Results are sorted ascending by days remaining, stable by pantry order.
func (s *ExpiryService) Notifications(ctx context.Context, thresholdDays int) ([]domain.Notification, error) {
	if thresholdDays <= 0 {
		thresholdDays = defaultNotifyDays
	}

	items, err := s.pantry.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var notifications []domain.Notification
	for _, item := range items {
		expiry, err := time.Parse(domain.DateLayout, item.ExpiryDate)
		if err != nil {
			log.Printf("[NOTIFY] Skipping %q: %v: %v", item.Name, domain.ErrDateParse, err)
			continue
		}

		daysLeft := int(expiry.Sub(today).Hours() / 24)
		if daysLeft < 0 || daysLeft > thresholdDays {
			continue
		}

		notifications = append(notifications, domain.Notification{
			ItemName: item.Name,
			DaysLeft: daysLeft,
		})
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].DaysLeft < notifications[j].DaysLeft
	})

	return notifications, nil
}

// FormatNotification renders one alert as a display message.
func FormatNotification(n domain.Notification) string {
	suffix := "s"
	if n.DaysLeft == 1 {
		suffix = ""
	}
	return fmt.Sprintf("%s will expire in %d day%s.", n.ItemName, n.DaysLeft, suffix)
}
