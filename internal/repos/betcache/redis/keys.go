package redis

const resultKeyPrefix = "bet:idem:result:"

func resultKey(accountID, betID string) string {
	return resultKeyPrefix + accountID + ":" + betID
}
