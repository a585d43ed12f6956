package events

// Code identifies a broadcast message. Displays translate codes into text.
type Code string

const (
	CodeRecordAttempt     Code = "RECORD_ATTEMPT"
	CodeNewRecord         Code = "NEW_RECORD"
	CodeAthleteWithdrawn  Code = "ATHLETE_WITHDRAWN"
	CodeCompetitionPaused Code = "COMPETITION_PAUSED"

	CodeJuryDeliberation  Code = "JURY_DELIBERATION"
	CodeCallReferee       Code = "CALL_REFEREE"
	CodeCallTechnical     Code = "CALL_TECHNICAL_CONTROLLER"
	CodeGoodLiftReversal  Code = "GOOD_LIFT_REVERSAL"
	CodeBadLiftReversal   Code = "BAD_LIFT_REVERSAL"
	CodeLiftConfirmed     Code = "LIFT_CONFIRMED"
	CodeChallengeAccepted Code = "CHALLENGE_ACCEPTED"
	CodeChallengeRejected Code = "CHALLENGE_REJECTED"
)
