package notifier

import (
	"fmt"
	"html"
	"time"
)

// emailTemplate wraps body content in the branded layout.
func emailTemplate(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #00004D; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #00004D; line-height: 1.6; }
			.code { text-align: center; color: #4CAF50; font-size: 40px; letter-spacing: 6px; margin: 20px 0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #d7b56d; margin: 20px 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>CLASSIA CAPITAL</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				Research is not investment advice. Please read all documents carefully.
			</div>
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent)
}

// OTPEmail renders the verification code mail.
func OTPEmail(code string, ttl time.Duration) (subject, body string) {
	subject = "Your Classia Capital verification code"
	body = emailTemplate("Verify your email", fmt.Sprintf(`
		<p>Your One Time Password (OTP) is:</p>
		<div class="code">%s</div>
		<p>The code is valid for %d minutes. Do not share it with anyone.</p>
	`, html.EscapeString(code), int(ttl/time.Minute)))
	return subject, body
}

// WelcomeEmail is sent once an email address is verified.
func WelcomeEmail(name string) (subject, body string) {
	subject = "Welcome to Classia Capital"
	body = emailTemplate("Welcome Onboard!", fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your account is verified. You can now pick a plan and access our research.</p>
	`, html.EscapeString(name)))
	return subject, body
}

// SubscriptionEmail confirms an activated plan.
func SubscriptionEmail(name, planType, subscriptionType string, expiry time.Time) (subject, body string) {
	subject = "Subscription Confirmed: " + planType
	body = emailTemplate("Subscription Successful", fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your <strong>%s</strong> (%s) subscription is active.</p>
		<div class="info-box">Valid until <strong>%s</strong>.</div>
	`, html.EscapeString(name), html.EscapeString(planType), html.EscapeString(subscriptionType), expiry.Format("January 2, 2006")))
	return subject, body
}

// ExpiryReminderEmail warns that a plan ends soon.
func ExpiryReminderEmail(name, planType string, expiry time.Time) (subject, body string) {
	subject = "Your Classia Capital subscription is expiring soon"
	body = emailTemplate("Subscription Expiring Soon", fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your <strong>%s</strong> subscription expires on <strong>%s</strong>.</p>
		<p>Renew before then to keep receiving research updates.</p>
	`, html.EscapeString(name), html.EscapeString(planType), expiry.Format("January 2, 2006")))
	return subject, body
}
