package email

// SampleEmail is the demo message offered to users who want to try the classifier.
const SampleEmail = `Subject: Your order #12345 has shipped!

Hi there,

Great news! Your recent order from Gadget Galaxy has been shipped and is on its way to you.

You can track your package here: [Tracking Link]

It's expected to arrive in 3-5 business days. We hope you enjoy your new gadget!

Thanks for shopping with us,
The Gadget Galaxy Team`
