package notifications

import (
	"context"
	"log"
	"time"

	"carryconnect/internal/models"
	"carryconnect/internal/modules/users"
	"carryconnect/pkg/email"
)

// Notifier dispatches best-effort notifications triggered by delivery
// lifecycle events. Sends run in their own goroutine and failures are
// logged and swallowed, so a dead email transport never blocks or fails
// a state transition.
type Notifier struct {
	users     users.RepositoryInterface
	sender    email.ServiceInterface
	templates *email.TemplateManager
}

func NewNotifier(userRepo users.RepositoryInterface, sender email.ServiceInterface, templates *email.TemplateManager) *Notifier {
	return &Notifier{users: userRepo, sender: sender, templates: templates}
}

// Send implements the notification sink used by the delivery service.
func (n *Notifier) Send(userID int64, notification models.Notification) {
	go n.dispatch(userID, notification)
}

func (n *Notifier) dispatch(userID int64, notification models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := n.users.FindByID(ctx, userID)
	if err != nil {
		log.Printf("notification lookup failed for user %d: %v", userID, err)
		return
	}

	log.Printf("notify user %d: %s", userID, notification.Title)

	if n.sender == nil || user.Email == nil {
		return
	}

	html, err := n.templates.GenerateNotificationEmailHTML(email.NotificationData{
		Name:  user.FullName,
		Title: notification.Title,
		Body:  notification.Body,
	})
	if err != nil {
		log.Printf("notification template failed: %v", err)
		return
	}

	if err := n.sender.SendEmail(ctx, *user.Email, notification.Title, notification.Body, html); err != nil {
		log.Printf("notification email to user %d failed: %v", userID, err)
	}
}
