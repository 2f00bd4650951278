package email

const (
	subjectFollowUpNew        = "Your free estimate is one click away"
	subjectFollowUpAged       = "Still thinking it over?"
	subjectFollowUpRetargeted = "Let's find a time that works"
)
