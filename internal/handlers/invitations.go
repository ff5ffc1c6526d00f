package handlers

import (
	"context"
	"fmt"

	"github.com/splits-network/notifier/internal/domain"
	"github.com/splits-network/notifier/internal/events"
)

// Invitations handles organization invitation events.
type Invitations struct {
	d Deps
}

func NewInvitations(d Deps) *Invitations { return &Invitations{d: d} }

// Created emails the invitee. Invitees have no account yet, so the contact
// is built from the invitation itself with a nil user id.
func (h *Invitations) Created(ctx context.Context, env events.Envelope) error {
	invitationID := env.Payload.String("invitation_id")
	if invitationID == "" {
		return errField("invitation_id", env.EventType)
	}

	inv, err := h.d.Lookup.Invitation(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return errEssential("invitation", invitationID)
	}

	org, err := h.d.Lookup.Organization(ctx, inv.OrganizationID)
	if err != nil {
		return err
	}
	orgName := "an organization"
	if org != nil {
		orgName = org.Name
	}

	invitee := &domain.Contact{
		ID:       "invitation:" + inv.ID,
		Name:     inv.Email,
		Email:    inv.Email,
		Type:     domain.ContactUser,
		EntityID: inv.ID,
	}

	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, []emailPlan{{
		to:       invitee,
		subject:  fmt.Sprintf("You have been invited to join %s", orgName),
		html:     fmt.Sprintf("<p>You were invited to join <strong>%s</strong> as %s.</p>", orgName, inv.Role),
		template: "invitation_created",
	}})
	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all recipients failed: %w", results.FirstErr())
	}
	return nil
}

// Accepted notifies the user who sent the invitation.
func (h *Invitations) Accepted(ctx context.Context, env events.Envelope) error {
	invitationID := env.Payload.String("invitation_id")
	if invitationID == "" {
		return errField("invitation_id", env.EventType)
	}

	inv, err := h.d.Lookup.Invitation(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return errEssential("invitation", invitationID)
	}

	inviter, err := h.d.Resolver.ByUserID(ctx, inv.InvitedByUserID)
	if err != nil {
		return err
	}
	if inviter == nil {
		return errEssential("user", inv.InvitedByUserID)
	}

	results := fanOutEmails(ctx, h.d.Email, env.EventType, env.Payload, []emailPlan{{
		to:       inviter,
		subject:  fmt.Sprintf("%s accepted your invitation", inv.Email),
		html:     fmt.Sprintf("<p><strong>%s</strong> accepted your invitation and joined the organization.</p>", inv.Email),
		template: "invitation_accepted",
	}})
	summarize(h.d.Logger, env.EventType, results)
	if results.AllFailed() {
		return fmt.Errorf("all recipients failed: %w", results.FirstErr())
	}
	return nil
}
