package utils

import (
	"advisory/models"
	"advisory/notifier"
	"advisory/store"
	"context"
	"log"
	"time"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

// Mailer sends one rendered email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}

// SubscriptionScheduler runs the daily housekeeping: expiry reminders and
// removal of spent OTP rows.
type SubscriptionScheduler struct {
	store  *store.Store
	mailer Mailer
	spec   string
	cron   *cron.Cron
	now    func() time.Time
}

func NewSubscriptionScheduler(s *store.Store, mailer Mailer, spec string) *SubscriptionScheduler {
	if spec == "" {
		spec = "0 9 * * *"
	}
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*60*60+30*60)
	}
	return &SubscriptionScheduler{
		store:  s,
		mailer: mailer,
		spec:   spec,
		cron:   cron.New(cron.WithLocation(loc)),
		now:    time.Now,
	}
}

// Start registers the daily job and starts the cron runner.
func (s *SubscriptionScheduler) Start() error {
	log.Println("[SCHEDULER] Initializing subscription scheduler...")
	if _, err := s.cron.AddFunc(s.spec, func() {
		log.Println("[SCHEDULER] Running daily subscription check...")
		s.RunOnce(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[SCHEDULER] Subscription scheduler started (%s IST)", s.spec)
	return nil
}

// Stop waits for a running job to finish.
func (s *SubscriptionScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *SubscriptionScheduler) RunOnce(ctx context.Context) {
	if _, err := s.SendExpiryReminders(ctx); err != nil {
		log.Printf("[SCHEDULER] Error sending reminders: %v", err)
	}
	purged, err := s.store.PurgeOTPs(ctx, s.now())
	if err != nil {
		log.Printf("[SCHEDULER] Error purging OTPs: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("[SCHEDULER] Purged %d spent OTPs", purged)
	}
}

// SendExpiryReminders mails every member whose plan ends before the end of
// the day after tomorrow. Each subscription period gets one reminder.
func (s *SubscriptionScheduler) SendExpiryReminders(ctx context.Context) (int, error) {
	t := s.now()
	windowEnd := now.With(t.AddDate(0, 0, 2)).EndOfDay()

	users, err := s.store.FindUsers(ctx, func(u *models.User) bool {
		return u.SubscriptionExpiry != nil &&
			!u.ReminderSent &&
			u.SubscriptionType != models.SubscriptionLifetime &&
			u.SubscriptionExpiry.After(t) &&
			!u.SubscriptionExpiry.After(windowEnd)
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[SCHEDULER] Found %d subscriptions expiring soon", len(users))

	sent := 0
	for _, user := range users {
		expiry := *user.SubscriptionExpiry
		subject, body := notifier.ExpiryReminderEmail(user.Name, user.PlanType, expiry)
		if err := s.mailer.SendEmail(ctx, user.Email, subject, body); err != nil {
			log.Printf("[SCHEDULER] Reminder to %s failed: %v", MaskIdentity(user.Email), err)
			continue
		}

		_, err := s.store.UpdateUser(ctx, user.Email, func(u *models.User) error {
			// a renewal since the scan starts a new period that keeps its reminder
			if u.SubscriptionExpiry != nil && u.SubscriptionExpiry.Equal(expiry) {
				u.ReminderSent = true
			}
			return nil
		})
		if err != nil {
			log.Printf("[SCHEDULER] Error marking reminder for user %d: %v", user.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
