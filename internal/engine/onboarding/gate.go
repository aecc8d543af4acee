// Package onboarding decides whether a principal must run organization
// provisioning before using the application.
package onboarding

import (
	"sync"

	"github.com/rs/zerolog/log"

	"fieldcrm/internal/platform/config"
	"fieldcrm/internal/platform/models"
)

type ProfileReader interface {
	GetByID(id string) (*models.Profile, error)
}

type MembershipReader interface {
	ListActiveByUser(userID string) ([]*models.Membership, error)
}

// Result carries the gate decision plus what it learned on the way: the
// principal's default org (for the subscription check downstream) and
// per-read errors for diagnostics. Read errors are never surfaced to
// the end user.
type Result struct {
	Needed        bool
	DefaultOrg    string
	ProfileErr    error
	MembershipErr error
}

type Gate struct {
	profiles    ProfileReader
	memberships MembershipReader
	failMode    config.FailMode
}

func NewGate(profiles ProfileReader, memberships MembershipReader, failMode config.FailMode) *Gate {
	if failMode == "" {
		failMode = config.FailOpen
	}
	return &Gate{profiles: profiles, memberships: memberships, failMode: failMode}
}

// Check reports whether the principal still needs onboarding. The two
// reads are independent and issued concurrently. Onboarding is needed
// unless the principal has at least one active membership AND a
// default_org pointer. Under fail-open an errored read counts as
// satisfied, so a store outage never traps users on the onboarding page.
func (g *Gate) Check(principal *models.Principal) Result {
	if principal == nil {
		return Result{Needed: false}
	}

	var (
		wg          sync.WaitGroup
		profile     *models.Profile
		profileErr  error
		memberships []*models.Membership
		memberErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, profileErr = g.profiles.GetByID(principal.ID)
	}()
	go func() {
		defer wg.Done()
		memberships, memberErr = g.memberships.ListActiveByUser(principal.ID)
	}()
	wg.Wait()

	res := Result{ProfileErr: profileErr, MembershipErr: memberErr}

	hasDefaultOrg := profile != nil && profile.DefaultOrg != ""
	hasMembership := len(memberships) > 0

	if profileErr != nil {
		log.Warn().Err(profileErr).Str("user_id", principal.ID).Msg("onboarding gate: profile read failed")
		hasDefaultOrg = g.failMode == config.FailOpen
	}
	if memberErr != nil {
		log.Warn().Err(memberErr).Str("user_id", principal.ID).Msg("onboarding gate: membership read failed")
		hasMembership = g.failMode == config.FailOpen
	}

	res.Needed = !(hasMembership && hasDefaultOrg)

	if profile != nil && profile.DefaultOrg != "" {
		res.DefaultOrg = profile.DefaultOrg
	} else if len(memberships) > 0 {
		res.DefaultOrg = memberships[0].OrgID
	}

	return res
}
