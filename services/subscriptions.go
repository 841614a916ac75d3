package services

import (
	"context"
	"log"
	"time"

	"nutriguide/store"
)

// CheckExpiredSubscriptions finds premium accounts whose subscription has
// ended and have not been told yet, marks them notified and emails them.
// Called from the background ticker in main.
func CheckExpiredSubscriptions(users store.UserStore, mailer *Mailer) {
	ctx := context.Background()

	expired, err := users.ExpiredUnnotified(ctx, time.Now())
	if err != nil {
		log.Printf("subscription sweep failed: %v", err)
		return
	}

	for _, u := range expired {
		// Mark first so a mail failure cannot re-notify forever.
		if err := users.MarkExpiryNotified(ctx, u.ID); err != nil {
			log.Printf("error marking expiry for %s: %v", u.ID, err)
			continue
		}
		log.Printf("subscription expired for user %s", u.Username)
		if mailer != nil {
			mailer.SendSubscriptionExpired(u)
		}
	}
}
