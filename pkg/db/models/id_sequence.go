package models

// IDSequence is a named monotonically increasing counter used to mint
// human-readable identifiers such as order numbers.
type IDSequence struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

func (IDSequence) TableName() string { return "id_sequences" }
