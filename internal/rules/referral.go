package rules

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dosh_badges/internal/model"
)

const (
	DefaultReferralBaseURL       = "https://yourapp.com"
	DefaultFriendLessonsRequired = 1

	minReferralCodeLength = 8
)

var referralCodePattern = regexp.MustCompile(`^[A-Z0-9]{8,15}$`)

// EffectiveReferralCount is the number of referrals that count toward the
// badge.
func EffectiveReferralCount(p model.ReferralProgress, requiresFriendCompletion bool) int {
	if requiresFriendCompletion {
		return p.CompletedReferrals
	}
	return p.TotalReferrals
}

// MeetsRequirement reports whether a referred friend completed enough
// lessons. A non-positive requirement means the default of one lesson.
func MeetsRequirement(friendCompletedLessons, friendLessonsRequired int) bool {
	if friendLessonsRequired <= 0 {
		friendLessonsRequired = DefaultFriendLessonsRequired
	}
	return friendCompletedLessons >= friendLessonsRequired
}

// RecountReferrals recomputes every record's requirement flag and the
// denormalized totals. Records that newly meet the requirement get earnedDate.
func RecountReferrals(p model.ReferralProgress, friendLessonsRequired int, today string) model.ReferralProgress {
	out := p.Clone()
	out.TotalReferrals = len(out.Referrals)
	out.CompletedReferrals = 0
	for i := range out.Referrals {
		r := &out.Referrals[i]
		r.FriendMeetsRequirement = MeetsRequirement(r.FriendCompletedLessons, friendLessonsRequired)
		if r.FriendMeetsRequirement {
			out.CompletedReferrals++
			if r.EarnedDate == "" {
				r.EarnedDate = today
			}
		}
	}
	return out
}

// ReferralCode derives a display code from a user id, a badge id and the
// clock. It is not unique and carries no recoverable identity.
func ReferralCode(userID, badgeID string, now time.Time) string {
	userHash := prefix(hashString(userID), 4)
	badgeHash := prefix(hashString(badgeID), 2)
	stamp := strconv.FormatInt(now.UnixMilli(), 36)

	code := strings.ToUpper(userHash + badgeHash + stamp)
	if len(code) < minReferralCodeLength {
		code = strings.Repeat("0", minReferralCodeLength-len(code)) + code
	}
	return code
}

// hashString is the 31-multiplier string hash truncated to 32 bits, rendered
// in base 36.
func hashString(s string) string {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return strconv.FormatInt(abs, 36)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ReferralLink embeds a code as the ref query parameter of the signup page.
func ReferralLink(baseURL, code string) string {
	if baseURL == "" {
		baseURL = DefaultReferralBaseURL
	}
	q := url.Values{}
	q.Set("ref", code)
	return strings.TrimRight(baseURL, "/") + "/signup?" + q.Encode()
}

// LinkCode returns the ref parameter of a referral link, or "" when the link
// does not parse.
func LinkCode(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("ref")
}

// ValidReferralCode is a format check only.
func ValidReferralCode(code string) bool {
	return referralCodePattern.MatchString(code)
}

// ShareText builds the invitation message followed by the link.
func ShareText(link, userName string) string {
	message := "Join our financial learning platform and help your friend earn rewards!"
	if userName != "" {
		message = fmt.Sprintf("Hey! %s invited you to join our financial learning platform. Sign up using this link and we both get rewards!", userName)
	}
	return message + "\n\n" + link
}
