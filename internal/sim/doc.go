// Package sim contains the simulated device behaviours: value sources that
// back sensors and actors that back actuators.
//
// Sources random-walk a quantity inside fixed bounds and accept feedback
// shifts from the hub (a running heater warms the room, a lit lamp raises
// the measured light level). Actors resolve commands into on/off states and
// hold their extra parameters (brightness, target temperature, alert count).
//
// Everything here is a leaf behaviour behind device.Sampler or device.Actor;
// swapping a formula never touches the device runtime.
package sim
