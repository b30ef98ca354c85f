package domain

import "time"

// AccountStatus defines the possible statuses of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusLocked AccountStatus = "LOCKED"
)

// NotificationPreferences holds the per-channel notification toggles.
type NotificationPreferences struct {
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
	SMS   bool `bson:"sms" json:"sms"`
}

// Preferences is the account preference block created with sane defaults on
// first login and editable by the user afterwards (outside this subsystem).
type Preferences struct {
	Notifications NotificationPreferences `bson:"notifications" json:"notifications"`
	Language      string                  `bson:"language" json:"language"`
}

// DefaultPreferences returns the preference block for a brand-new account.
// Language falls back to "en" when the provider supplied no locale.
func DefaultPreferences(locale string) Preferences {
	if locale == "" {
		locale = "en"
	}
	return Preferences{
		Notifications: NotificationPreferences{Email: true, Push: true, SMS: false},
		Language:      locale,
	}
}

// Account is the persisted local record for one identity-provider subject.
//
// Role is write-once-by-policy: the resolver sets it exactly once at creation
// and no login path may overwrite it afterwards. Only an explicit
// administrative action (outside this service) changes it.
type Account struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	SubjectID string `bson:"subject_id" json:"subjectId"`
	Email     string `bson:"email" json:"email"`

	Name          string `bson:"name,omitempty" json:"name,omitempty"`
	GivenName     string `bson:"given_name,omitempty" json:"givenName,omitempty"`
	FamilyName    string `bson:"family_name,omitempty" json:"familyName,omitempty"`
	PictureURL    string `bson:"picture_url,omitempty" json:"pictureUrl,omitempty"`
	Locale        string `bson:"locale,omitempty" json:"locale,omitempty"`
	EmailVerified bool   `bson:"email_verified" json:"emailVerified"`

	Role   Role          `bson:"role" json:"role"`
	Status AccountStatus `bson:"status" json:"status"`

	LoginCount         int64      `bson:"login_count" json:"loginCount"`
	LastLoginAt        *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
	LastLoginIP        string     `bson:"last_login_ip,omitempty" json:"lastLoginIp,omitempty"`
	LastLoginUserAgent string     `bson:"last_login_user_agent,omitempty" json:"lastLoginUserAgent,omitempty"`

	Preferences Preferences `bson:"preferences" json:"preferences"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// AccountView is the JSON shape returned to callers: the persisted account
// plus three derived fields that are never written to storage.
type AccountView struct {
	Account

	FullName                    string `json:"fullName"`
	ProfileCompletionPercentage int    `json:"profileCompletionPercentage"`
	IsNewUser                   bool   `json:"isNewUser"`
}
