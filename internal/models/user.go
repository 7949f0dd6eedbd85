package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;size:20;default:student"`

	// Profile info
	AvatarURL *string `json:"avatar_url" gorm:"size:500"`
	GradeName *string `json:"grade_name" gorm:"size:50"` // e.g. "6ème", "Terminale"

	// Settings
	Timezone string `json:"timezone" gorm:"default:Europe/Paris;size:64"`
	Language string `json:"language" gorm:"default:fr;size:10"`

	// Status
	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// StudentTeacher links a teacher to a student they follow.
type StudentTeacher struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TeacherID string    `json:"teacher_id" gorm:"not null;size:255;uniqueIndex:idx_teacher_student"`
	StudentID string    `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_teacher_student;index"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Teacher User `json:"-" gorm:"foreignKey:TeacherID"`
	Student User `json:"-" gorm:"foreignKey:StudentID"`
}

func (StudentTeacher) TableName() string {
	return "student_teachers"
}
