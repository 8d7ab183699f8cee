/*
Package dialog implements the conversation state machine.

The machine is a total function over (session state, inbound event):
every pair produces a reply and a valid next state. Listed transitions
perform their commerce side effects before the state is committed; a
failed commerce call leaves the session where it was and renders a
generic unavailable message. Unlisted pairs re-render the current
menu and never mutate the cart.
*/
package dialog
