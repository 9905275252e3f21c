package model

type Summary struct {
	TotalTasks    int            `json:"totalTasks"`
	TotalUsers    int            `json:"totalUsers"`
	TasksByStatus map[string]int `json:"tasksByStatus"`
}

type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}
