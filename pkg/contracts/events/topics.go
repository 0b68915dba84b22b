package events

const (
	TopicBetSettled = "bet_settled"
)
