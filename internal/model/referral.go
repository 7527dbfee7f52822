package model

// ReferralProgress tracks one user's referrals toward one referral badge.
// TotalReferrals and CompletedReferrals always equal the counts over Referrals.
type ReferralProgress struct {
	UserID             string           `json:"userId"`
	BadgeID            string           `json:"badgeId"`
	ReferralLink       string           `json:"referralLink"`
	Referrals          []ReferralRecord `json:"referrals"`
	TotalReferrals     int              `json:"totalReferrals"`
	CompletedReferrals int              `json:"completedReferrals"`
}

type ReferralRecord struct {
	ID                     string `json:"id"`
	ReferredUserID         string `json:"referredUserId"`
	ReferredUserEmail      string `json:"referredUserEmail,omitempty"`
	ReferredDate           string `json:"referredDate"`
	FriendCompletedLessons int    `json:"friendCompletedLessons"`
	FriendMeetsRequirement bool   `json:"friendMeetsRequirement"`
	EarnedDate             string `json:"earnedDate,omitempty"`
}

func (p ReferralProgress) Clone() ReferralProgress {
	out := p
	if p.Referrals != nil {
		out.Referrals = append([]ReferralRecord(nil), p.Referrals...)
	}
	return out
}

// ReferralKey identifies a (user, badge) referral progress record.
func ReferralKey(userID, badgeID string) string {
	return userID + "-" + badgeID
}
