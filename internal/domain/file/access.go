package file

type Permissions struct {
	Read   bool
	Update bool
	Delete bool
}

// Evaluate decides what actor may do with r. Sender is matched by identity,
// recipient by username.
func Evaluate(actor Actor, r *Record) Permissions {
	if r == nil {
		return Permissions{}
	}

	isSender := actor.ID == r.UploadedBy
	isRecipient := actor.Username != "" && actor.Username == r.RecipientUserName

	return Permissions{
		Read:   r.IsPublic || isSender || isRecipient,
		Update: isSender,
		Delete: isSender || isRecipient,
	}
}
