package domain

import "gorm.io/gorm"

type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PublicID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	AuthorID uint   `gorm:"index;not null" json:"author_id"`
	Title    string `gorm:"type:varchar(200);not null" json:"title"`
	Body     string `gorm:"type:text" json:"body"`
	gorm.Model
}
