package entities

type ApiKey struct {
	Key    string `db:"key"`
	Label  string `db:"label"`
	Status bool   `db:"status"`
}
