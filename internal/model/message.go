package model

type Message struct {
	ID            string `json:"id"`
	FileID        string `json:"fileId"`
	UserID        string `json:"userId"`
	IsUserMessage bool   `json:"isUserMessage"`
	Text          string `json:"text"`
	Seq           int64  `json:"-"`
	Ctime         int64  `json:"createdAt"`
}
