/*
Package gconf provides a toolset for managing an extension configuration.

Each extension keeps a single configuration object, stored under the
"_c:<package name>" key. Configuration is loaded from the "conf" section of
the genesis file when the chain is initialized, and read by handlers on
every call.

	{
	  "conf": {
	    "escrow": {
	      "refund_delay": 864000,
	      "task_queue": "escrow",
	      "program": "escrow"
	    }
	  }
	}
*/
package gconf
