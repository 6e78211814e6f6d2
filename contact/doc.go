/*
Package contact implements the state behind the portfolio contact form.

A Controller holds the five field values, validates the email address and
posts the form as JSON to an external mail relay:

	c, err := contact.New("https://relay.example.com")
	if err != nil {
		return err
	}
	_ = c.SetField(contact.Email, "jane@example.com")
	res := c.Submit(ctx)

# Status

Status is a closed set of three states:

	switch s := c.Status().(type) {
	case contact.Idle:
	case contact.Success:
		fmt.Println(s.Message)
	case contact.Failure:
		fmt.Println(s.Reason)
	}

Editing any field after an attempt returns the status to Idle.

# Errors

Submit never returns an error. Failures are reported through Result.Error,
the Failure status, and the optional Observer, which receives either a
*ValidationError (rejected before the network call) or a *SubmissionError.
*/
package contact
