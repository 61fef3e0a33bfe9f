// Package notification composes and delivers the platform's emails. Messages
// are enqueued as outbox rows inside the financial transaction that caused
// them; the Dispatcher delivers them afterwards, at least once.
package notification

import (
	"fmt"

	"catalyst/internal/models"

	"github.com/shopspring/decimal"
)

// Message kinds, recorded on outbox rows for observability.
const (
	KindWelcome          = "welcome"
	KindGrantInstr       = "grant_instructions"
	KindGrantAdminAlert  = "grant_admin_alert"
	KindGrantRejected    = "grant_rejected"
	KindDonationReceipt  = "donation_receipt"
	KindCampaignUpdate   = "campaign_update"
	KindFollowRequest    = "follow_request"
	KindFollowerInvested = "follower_invested"
	KindFollowedLead     = "followed_lead"
	KindWalletCredit     = "wallet_credit"
	KindReturnPayout     = "return_payout"
	KindPasswordReset    = "password_reset"
)

func Welcome(to, username string) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindWelcome,
		Recipient: to,
		Subject:   "Welcome to Catalyst",
		Body: fmt.Sprintf(
			"Your account %q has been created. Use the password reset option to choose your own password.",
			username),
	}
}

func GrantInstructions(to, provider, providerURL string, gross decimal.Decimal) *models.OutboxEmail {
	body := fmt.Sprintf(
		"Thank you for pledging $%s through %s. Please instruct your fund to complete the grant.",
		gross.StringFixed(2), provider)
	if providerURL != "" {
		body += " Provider portal: " + providerURL
	}
	return &models.OutboxEmail{
		Kind:      KindGrantInstr,
		Recipient: to,
		Subject:   "Your grant pledge",
		Body:      body,
	}
}

func GrantAdminAlert(to, donorEmail, provider string, gross decimal.Decimal, campaignName string) *models.OutboxEmail {
	body := fmt.Sprintf("New grant pledge: $%s from %s via %s.", gross.StringFixed(2), donorEmail, provider)
	if campaignName != "" {
		body += " Designated campaign: " + campaignName + "."
	}
	return &models.OutboxEmail{
		Kind:      KindGrantAdminAlert,
		Recipient: to,
		Subject:   "New grant pledge",
		Body:      body,
	}
}

func GrantRejected(to string, gross decimal.Decimal, memo string) *models.OutboxEmail {
	body := fmt.Sprintf("Your grant pledge of $%s was not completed.", gross.StringFixed(2))
	if memo != "" {
		body += " Note: " + memo
	}
	return &models.OutboxEmail{
		Kind:      KindGrantRejected,
		Recipient: to,
		Subject:   "Grant pledge update",
		Body:      body,
	}
}

func DonationReceipt(to, campaignName string, amount decimal.Decimal) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindDonationReceipt,
		Recipient: to,
		Subject:   "Thank you for your investment recommendation",
		Body: fmt.Sprintf("Your recommendation of $%s toward %s has been recorded.",
			amount.StringFixed(2), campaignName),
	}
}

func CampaignUpdate(to, campaignName string, raised decimal.Decimal, investors int64) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindCampaignUpdate,
		Recipient: to,
		Subject:   "Campaign update: " + campaignName,
		Body: fmt.Sprintf("%s has now raised $%s from %d investors.",
			campaignName, raised.StringFixed(2), investors),
	}
}

func FollowRequestAlert(to, requesterName string) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindFollowRequest,
		Recipient: to,
		Subject:   "New follow request",
		Body:      fmt.Sprintf("%s wants to follow your investment activity.", requesterName),
	}
}

// FollowerInvested tells a follower that someone they follow just invested.
func FollowerInvested(to, donorName, campaignName string) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindFollowerInvested,
		Recipient: to,
		Subject:   fmt.Sprintf("%s just invested in %s", donorName, campaignName),
		Body: fmt.Sprintf("%s, who you follow, just made an investment recommendation for %s.",
			donorName, campaignName),
	}
}

// FollowedLead tells a user that someone who follows them repeated their
// investment in the same campaign.
func FollowedLead(to, donorName, campaignName string) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindFollowedLead,
		Recipient: to,
		Subject:   fmt.Sprintf("%s just followed your lead on %s", donorName, campaignName),
		Body: fmt.Sprintf("%s, who follows you, just made the same investment you did in %s.",
			donorName, campaignName),
	}
}

func WalletCredit(to string, amount decimal.Decimal) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindWalletCredit,
		Recipient: to,
		Subject:   "Funds added to your account",
		Body:      fmt.Sprintf("$%s has been credited to your account balance.", amount.StringFixed(2)),
	}
}

func ReturnPayout(to, campaignName string, payout decimal.Decimal) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindReturnPayout,
		Recipient: to,
		Subject:   "Investment return from " + campaignName,
		Body: fmt.Sprintf("A return of $%s from %s has been credited to your account.",
			payout.StringFixed(2), campaignName),
	}
}

func PasswordReset(to, code string) *models.OutboxEmail {
	return &models.OutboxEmail{
		Kind:      KindPasswordReset,
		Recipient: to,
		Subject:   "Your password reset code",
		Body:      "Your reset code is " + code + ". It expires in 15 minutes.",
	}
}
