package reasoning

// Field names one input or output value of a Signature.
type Field struct {
	// Name is the JSON key the model must use for this field.
	Name string
	// Desc tells the model what the field holds.
	Desc string
}

// Signature declares a single structured inference: the task
// instructions, the inputs rendered into the prompt, and the output
// fields the reply must contain.
type Signature struct {
	// Name identifies the signature in logs and traces.
	Name string
	// Instructions describe the task for the model.
	Instructions string
	// Inputs lists the values rendered into the prompt, in order.
	Inputs []Field
	// Outputs lists the fields the JSON reply must contain.
	Outputs []Field
}
