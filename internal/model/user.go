package model

// swagger:model User
type User struct {
	UUIDBase
	Email         string `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password      string `gorm:"size:100;not null" json:"-"`
	Name          string `gorm:"size:100;not null" json:"name"`
	GuardianEmail string `gorm:"size:191" json:"guardianEmail,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) HasGuardian() bool {
	return u.GuardianEmail != ""
}
